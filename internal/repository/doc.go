// Package repository resolves data id templates into data references. A
// repository knows its dimensions (name and type), the datasets it holds
// (a path template per dataset type) and the list of ids it contains.
//
// Repositories are described on disk by a repo.hcl file at the input root;
// New builds the same thing in memory.
package repository
