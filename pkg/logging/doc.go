// Package logging provides subsystem-tagged logging for yoctl on top of slog.
//
// Two modes are supported:
//
//   - CLI mode (InitForCLI): entries go to a slog text handler, filtered by level.
//     One-shot cobra commands use this with os.Stderr.
//   - REPL mode (InitForREPL): entries are sent on a buffered channel. The
//     interactive console drains it and prints each entry above the prompt,
//     so background activity such as transport reconnects never interleaves
//     with the line being typed.
//
// Usage:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("Transport", "connected to %s", url)
//	logging.Error("Store", err, "failed to load configuration")
//
// Subsystems used across the repository include Transport, Store, Editor,
// API, Console and Context.
package logging
