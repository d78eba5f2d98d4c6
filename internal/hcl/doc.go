// Package hcl is the HCL adapter of the runtime. It reads config override
// files and single command-line assignments into a config.Config, renders a
// config back as HCL, and parses HCL type expressions used by repository
// description files.
package hcl
