// Package logger provides structured logging built on zerolog.
//
// A single global logger is configured once via Initialize and retrieved
// with GetLogger; components attach run context through WithField and
// WithFields. Console output is colorized; an optional log file receives
// the same stream.
package logger
