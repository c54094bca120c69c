// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a sane console encoder,
//   - context helpers (ToContext/FromContext/WithName),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, WarnKV, etc.).
//
// All pipeline stages accept a context and extract the logger from it,
// enabling scoped, structured logging throughout the codebase. Advisory
// warnings (unsupported OS, missing shebang, disabled TLS verification)
// are emitted at warn level and never influence control flow.
package logger
