// Package config defines the typed configuration model used by tasks.
//
// A Config is an ordered tree of named items. A Field is a typed leaf with a
// default, a one-line doc string and an optional check. A ConfigurableField
// binds a nested Config to a Target, the task implementation that consumes
// it; Retarget swaps the implementation and resets the nested Config to the
// new target's defaults while every sibling keeps its value.
//
// Values are held as cty.Value so the same model can be fed from Go code,
// from HCL override files and from command-line assignments. Concrete
// formats live in separate packages and reach the model through Source.
package config
