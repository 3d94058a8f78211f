package core

// Logger is any leveled logger able to report errors to an external tracker.
// Extra args may carry errors or structured data, implementation permitting.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
