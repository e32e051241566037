// Package retry drives the bounded retry loop from spec §4.9 on top of an
// injected single-attempt runner, so it carries no import dependency on
// package supervisor and can be tested against a fake attempt function.
package retry
