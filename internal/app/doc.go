// Package app contains the command-line task driver. ParseAndRun turns an
// argument list into a configured task and a list of data references, runs
// the task once per reference and returns the collected results, decoupled
// from any specific entrypoint.
package app
