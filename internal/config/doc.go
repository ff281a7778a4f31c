// Package config loads, normalizes, and validates packline configuration data.
//
// It supplies station defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PACKLINE_PRINTER_ADDRESS. The Config type centralizes the weight policy
// constants, traceability code conventions, and collaborator endpoints
// (printer, scale, ntfy) so the CLI and services discover them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
