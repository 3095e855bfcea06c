// Package logger wraps zap for the diagnostic log stream of tpi:
//   - a global sugared logger writing to stderr with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and adjustment,
//   - leveled key-value functions (DebugKV, InfoKV, WarnKV).
//
// User-facing output is printed by the console package; this stream is for
// diagnostics and stays quiet at the default warn level.
package logger
