// Package daemon coordinates the long-running Echo-Check process.
//
// It wires configuration, the queue and user stores, the workflow manager,
// and the HTTP API into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon exposes queue maintenance helpers
// used by the CLI and owns startup preflight checks.
//
// Keep orchestration logic here: individual pipeline stages live in their
// respective packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
