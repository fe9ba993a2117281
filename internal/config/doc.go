// Package config loads, normalizes, and validates curator configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// UNSPLASH_ACCESS_KEY and CURATOR_CATALOG_DSN. The Config type centralizes
// every knob the reconciliation pipeline and CLI need: where assets live, how
// to reach the catalog, the external image source and its quotas, and the
// per-run batch limits.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
