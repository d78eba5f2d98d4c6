// Package cli parses the argument list of a command-line task: positional
// repository tag and input root, --id groups, config overrides and logging
// flags. It also resolves data roots from the environment and carries exit
// codes to the entrypoint.
package cli
