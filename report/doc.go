// Package report marshals a runner.Result into the single-line JSON schema
// (current version 8) from spec §6. Field semantics never change within a
// schema_version; only additive fields are allowed.
package report
