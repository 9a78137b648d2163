// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing mock-backed agents and transcripts. These
// helpers are intentionally minimal and not intended for production usage.
package testutil
