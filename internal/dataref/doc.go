// Package dataref models the identifiers a command-line task runs over.
//
// An ID is an ordered set of dimension values such as visit, raft and
// sensor. A Template is the parsed form of one --id group: for every named
// dimension, the values it accepts. A Ref is a resolved ID plus a way to
// find the files of each dataset type for that ID; it is the unit of work
// handed to a command-line task.
//
// Values are cty values coerced through the repository Schema, so
// "visit=85470982" is a number and "raft=0,3" stays a string.
package dataref
