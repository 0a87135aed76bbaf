// Package internal contains the core implementation packages for lumen.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the lumen CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - template: the template engine (lexer, parser, evaluator, renderer)
//   - config: configuration loading and validation
//   - errors: structured error types for the engine and the host
//   - logging: structured logging built on log/slog
//   - providers: system data providers (cpu, memory, battery, clock, ...)
//   - registry: widget registry, template cache, and event broadcasting
//   - renderer: reactive widget rendering against provider variables
//   - server: HTTP API and websocket push of rendered markup
//   - watcher: file system monitoring with debouncing
//   - version: build metadata
//
// # Inter-Package Communication
//
// Providers emit variable maps through the provider manager's output
// channel. The renderer consumes that channel, re-renders the widgets that
// depend on the changed provider, and publishes markup updates that the
// server relays to websocket clients. The watcher closes the loop for
// development: config or template changes reload widgets in place.
package internal
