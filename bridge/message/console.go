package message

import "fmt"

// Level is a console severity forwarded by the diagnostic interceptor.
type Level string

const (
	LevelLog   Level = "log"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Valid reports whether l is one of the three forwarded levels.
func (l Level) Valid() bool {
	return l == LevelLog || l == LevelWarn || l == LevelError
}

// ConsoleMessage is a validated record from the console channel.
//
// Wire shape: {"level":"log"|"warn"|"error","message":"<string>"}
type ConsoleMessage struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Line formats the message the way the host log sink prints it.
func (m ConsoleMessage) Line() string {
	return fmt.Sprintf("[Editor console][%s] %s", m.Level, m.Message)
}

// ConsoleEntry is a ConsoleMessage annotated for sinks.
type ConsoleEntry struct {
	SessionID string `json:"session_id"`
	ConsoleMessage
	Timestamp int64 `json:"timestamp"` // epoch milliseconds
}
