// Package parse implements the CLI's external-collaborator grammars:
// durations, signals, and (via runner.Size) memory sizes.
package parse
