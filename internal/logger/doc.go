// Package logger wraps zap with a global sugared logger that writes to stderr,
// leaving stdout free for command results.
//
// Loggers travel inside a context (ToContext/FromContext/WithName/WithKV) so
// every service logs with its own name and fields.
package logger
