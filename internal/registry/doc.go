// Package registry provides the central "glue" for the module system.
//
// The Registry maps the stable names of task implementations (e.g.
// "AddTwiceTask") to their compiled Descriptors. Override files and
// command-line assignments retarget configurable fields by name, and the
// command-line binary lists the runnable tasks from here.
//
// During application startup, the registry is populated and then validated
// so a descriptor whose defaults cannot be built is caught before any data
// is touched.
package registry
