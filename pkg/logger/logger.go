// Package logger defines the leveled logging surface the store and its
// connections write to. The default is [Nop]; applications plug in the
// slog-backed implementation from [New] or anything else satisfying
// [Logger].
package logger

// Logger accepts leveled messages with alternating key/value args, in
// the style of log/slog.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Error(msg string, args ...any) {}
func (Nop) Warn(msg string, args ...any)  {}
func (Nop) Info(msg string, args ...any)  {}
func (Nop) Debug(msg string, args ...any) {}
