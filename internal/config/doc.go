// Package config loads, normalizes, and validates Echo-Check configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ECHOCHECK_TOKEN_SECRET. The Config type centralizes every knob the daemon
// and CLI need, from staging/artifact directories to the inference service
// endpoint and API bind address.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
