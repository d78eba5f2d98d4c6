package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/pipebase/internal/config"
	"github.com/vk/pipebase/internal/ctxlog"
)

// ValidateRegistry checks every descriptor: it must be buildable, its
// default config must exist and validate, and command-line tasks need a
// default name. Configurable fields bound to unregistered targets are only
// reported as warnings, since they still work but cannot be retargeted back
// by name.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Names() {
		desc := r.descriptors[name]
		if desc.Build == nil {
			errs = append(errs, fmt.Sprintf("task '%s': descriptor has no Build function", name))
		}
		if r.cmdLine[name] && desc.DefaultName == "" {
			errs = append(errs, fmt.Sprintf("task '%s': command-line tasks need a default name", name))
		}

		cfg := desc.NewConfig()
		if cfg == nil {
			errs = append(errs, fmt.Sprintf("task '%s': descriptor provides no default config", name))
			continue
		}
		if err := cfg.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("task '%s': default config is invalid: %v", name, err))
		}

		r.warnUnregisteredTargets(ctx, name, "", cfg)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validation passed.", "descriptors", len(r.descriptors))
	return nil
}

func (r *Registry) warnUnregisteredTargets(ctx context.Context, owner, prefix string, cfg *config.Config) {
	for _, cf := range cfg.Configurables() {
		path := prefix + cf.Name
		target := cf.Target().TargetName()
		if _, ok := r.descriptors[target]; !ok {
			ctxlog.FromContext(ctx).Warn("Configurable field is bound to an unregistered task.", "task", owner, "field", path, "target", target)
		}
		r.warnUnregisteredTargets(ctx, owner, path+".", cf.Config())
	}
}
