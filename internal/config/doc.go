// Package config resolves the effective tool configuration from three
// ordered layers: built-in defaults, an optional shared file and an optional
// per-user file (~/.instget.conf). Later layers overwrite earlier ones,
// field by field.
//
// Configuration files use a strict KEY=value grammar and are parsed
// defensively; their contents are data and are never evaluated. The merged
// result is validated once and treated as immutable for the rest of the run.
package config
