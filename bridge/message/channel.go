// Package message defines the records exchanged between the host and the
// embedded editor runtime. These are the public API contract: the host
// application imports this package to receive saved documents and
// diagnostic output.
package message

// ChannelName identifies one of the fixed message routes between the
// embedded runtime and the host.
type ChannelName string

const (
	ChannelEditor  ChannelName = "editor"  // save records from the editor application
	ChannelConsole ChannelName = "console" // log/error records from the diagnostic interceptor
)

// Channels returns the full, fixed channel set in registration order.
func Channels() []ChannelName {
	return []ChannelName{ChannelEditor, ChannelConsole}
}

// Valid reports whether c is one of the fixed channel names.
func (c ChannelName) Valid() bool {
	return c == ChannelEditor || c == ChannelConsole
}
