// Package constants centralizes defaults shared across the CLI, the API and
// the scan engine.
//
// Probe timeouts, the TLS expiry threshold and storage defaults live here so
// cmd/ and internal/ agree on them without importing each other.
package constants
