package hcl

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/pipebase/internal/config"
	"github.com/vk/pipebase/internal/ctxlog"
	"github.com/vk/pipebase/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// FileSource applies an HCL override file, or every .hcl file below a
// directory in lexical order. Top-level attributes set simple
// fields; a block named after a configurable field addresses its nested
// config, and a `target` attribute inside that block retargets it:
//
//	threshold = 5
//	isr {
//	  target = "FancyIsrTask"
//	  doBias = false
//	}
type FileSource struct {
	Path string
}

// Apply implements config.Source.
func (s FileSource) Apply(ctx context.Context, cfg *config.Config, resolve config.TargetResolver) error {
	info, err := os.Stat(s.Path)
	if err != nil {
		return fmt.Errorf("error accessing config file %s: %w", s.Path, err)
	}
	if info.IsDir() {
		files, err := fsutil.FindFilesByExtension(s.Path, ".hcl")
		if err != nil {
			return fmt.Errorf("failed to list config files in %s: %w", s.Path, err)
		}
		ctxlog.FromContext(ctx).Debug("Discovered config files.", "dir", s.Path, "count", len(files))
		for _, file := range files {
			if err := (FileSource{Path: file}).Apply(ctx, cfg, resolve); err != nil {
				return err
			}
		}
		return nil
	}

	src, err := os.ReadFile(s.Path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", s.Path, err)
	}
	return BytesSource{Name: s.Path, Src: src}.Apply(ctx, cfg, resolve)
}

// BytesSource applies HCL override content held in memory.
type BytesSource struct {
	Name string
	Src  []byte
}

// Apply implements config.Source.
func (s BytesSource) Apply(ctx context.Context, cfg *config.Config, resolve config.TargetResolver) error {
	logger := ctxlog.FromContext(ctx)

	file, diags := hclparse.NewParser().ParseHCL(s.Src, s.Name)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse config file %s: %w", s.Name, diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("config file %s: unexpected body type %T", s.Name, file.Body)
	}

	if err := applyBody(body, cfg, "", resolve); err != nil {
		return fmt.Errorf("config file %s: %w", s.Name, err)
	}
	logger.Debug("Applied config file.", "file", s.Name)
	return nil
}

// applyBody walks one HCL body. The `target` attribute is handled before
// anything else so that the following attributes land in the new config.
func applyBody(body *hclsyntax.Body, root *config.Config, prefix string, resolve config.TargetResolver) error {
	if attr, ok := body.Attributes[config.ReservedName]; ok {
		if prefix == "" {
			return fmt.Errorf("%s: %q is only allowed inside a configurable block", attr.NameRange, config.ReservedName)
		}
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return diags
		}
		if err := retarget(root, strings.TrimSuffix(prefix, "."), val, resolve); err != nil {
			return err
		}
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for name, attr := range body.Attributes {
		if name != config.ReservedName {
			attrs = append(attrs, attr)
		}
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	for _, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return diags
		}
		if err := assign(root, prefix+attr.Name, val); err != nil {
			return err
		}
	}

	for _, block := range body.Blocks {
		if len(block.Labels) > 0 {
			return fmt.Errorf("%s: block %q takes no labels", block.DefRange(), block.Type)
		}
		if err := applyBody(block.Body, root, prefix+block.Type+".", resolve); err != nil {
			return err
		}
	}
	return nil
}

// assign converts val to the type of the field at path and stores it.
func assign(root *config.Config, path string, val cty.Value) error {
	field, err := root.FieldAt(path)
	if err != nil {
		return err
	}
	if field.Type != cty.DynamicPseudoType && !val.IsNull() {
		converted, err := convert.Convert(val, field.Type)
		if err != nil {
			return &config.ValidationError{Field: path, Reason: "rejected value", Err: err}
		}
		val = converted
	}
	return root.Set(path, val)
}

// retarget binds the configurable field at path to the target named by val.
// Naming the current target leaves the nested config untouched.
func retarget(root *config.Config, path string, val cty.Value, resolve config.TargetResolver) error {
	if val.IsNull() || val.Type() != cty.String {
		return &config.ValidationError{Field: path, Reason: "target must be a string"}
	}
	cf, err := root.Lookup(path)
	if err != nil {
		return err
	}
	name := val.AsString()
	if cf.Target().TargetName() == name {
		return nil
	}
	if resolve == nil {
		return &config.ValidationError{Field: path, Reason: fmt.Sprintf("cannot resolve target %q", name)}
	}
	target, err := resolve(name)
	if err != nil {
		return &config.ValidationError{Field: path, Reason: "unknown target", Err: err}
	}
	return cf.Retarget(target)
}

// AssignmentSource is a single `path=value` override, as given with
// --config on the command line. The value is read as an HCL expression and
// falls back to a literal string when it does not parse. A path ending in
// ".target" retargets the configurable field it names.
type AssignmentSource struct {
	Path  string
	Value string
}

// ParseAssignment splits a `path=value` argument.
func ParseAssignment(arg string) (AssignmentSource, error) {
	path, value, ok := strings.Cut(arg, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return AssignmentSource{}, fmt.Errorf("invalid config override %q: expected path=value", arg)
	}
	return AssignmentSource{Path: path, Value: value}, nil
}

// Apply implements config.Source.
func (s AssignmentSource) Apply(ctx context.Context, cfg *config.Config, resolve config.TargetResolver) error {
	val := literal(s.Value)
	ctxlog.FromContext(ctx).Debug("Applying config override.", "path", s.Path, "value", s.Value)

	if s.Path == config.ReservedName {
		return &config.ValidationError{Field: s.Path, Reason: "the root config cannot be retargeted"}
	}
	if prefix, ok := strings.CutSuffix(s.Path, "."+config.ReservedName); ok {
		return retarget(cfg, prefix, val, resolve)
	}
	return assign(cfg, s.Path, val)
}

func literal(raw string) cty.Value {
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "<config>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.StringVal(raw)
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() || !val.IsWhollyKnown() {
		return cty.StringVal(raw)
	}
	return val
}
