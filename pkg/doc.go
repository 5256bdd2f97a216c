// Package pkg provides shared utilities for the softdma engine.
//
// This package contains common functionality used by the engine, the HAL
// implementations, and the loopback orchestrator:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for configuration and transfer failures
//   - Component identifiers for log filtering
//
// # Logging
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentEngine, "session opened", "channels", 0b11)
//
// # Errors
//
//	if errors.Is(err, pkg.ErrChannelBusy) {
//	    // pick other channels or retry later
//	}
package pkg
