package app

import (
	"github.com/vk/pipebase/internal/registry"
	"github.com/vk/pipebase/modules/arith"
	"github.com/vk/pipebase/modules/ccd"
)

// coreModules is the definitive list of all modules that are compiled into
// the pipetask binary.
var coreModules = []registry.Module{
	&arith.Module{},
	&ccd.Module{},
}

// NewRegistry returns a registry holding every core module.
func NewRegistry() *registry.Registry {
	return registry.New(coreModules...)
}
