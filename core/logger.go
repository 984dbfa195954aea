package core

// Logger is any service that can log leveled messages with optional
// structured arguments. Implementations may special-case a user.User
// argument to attribute the entry to a person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
