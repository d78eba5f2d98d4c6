// Package task implements the composition unit of a pipeline.
//
// A task implementation is described once by a static Descriptor: its
// discriminator name, its default instance name, its default Config and a
// Build function. New constructs a tree of tasks from a descriptor: every
// configurable field of the config becomes a sub-task, built eagerly and
// recursively, named after the field and owned by its parent.
//
// Every task carries its own metadata store. Timed operations (TimeMethod
// and Timer, both backed by timer.Time) write their start and end entries
// there, and FullMetadata merges the stores of the whole tree under
// colon-delimited paths mirroring the task hierarchy.
package task
