package rtsp

import "strings"

// Command is a control command recognized by the session controller
type Command int

const (
	CommandUnknown Command = iota
	CommandOptions
	CommandDescribe
	CommandSetup
	CommandPlay
	CommandTeardown
)

var commandNames = map[string]Command{
	MethodOptions:  CommandOptions,
	MethodDescribe: CommandDescribe,
	MethodSetup:    CommandSetup,
	MethodPlay:     CommandPlay,
	MethodTeardown: CommandTeardown,
}

// String returns the method name of the command
func (c Command) String() string {
	switch c {
	case CommandOptions:
		return MethodOptions
	case CommandDescribe:
		return MethodDescribe
	case CommandSetup:
		return MethodSetup
	case CommandPlay:
		return MethodPlay
	case CommandTeardown:
		return MethodTeardown
	default:
		return "UNKNOWN"
	}
}

// ParseCommand returns the first recognized command keyword in a request
// line and its token index. Only the request line is inspected, so keywords
// appearing in header values never select a command.
func ParseCommand(line string) (Command, int) {
	for i, token := range strings.Fields(line) {
		if cmd, ok := commandNames[token]; ok {
			return cmd, i
		}
	}
	return CommandUnknown, -1
}
