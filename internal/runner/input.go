// Package runner implements the interactive multi-turn chat loop: it
// accepts UserInput from an AgentInterface, drives the streaming
// tool-calling loop against the current agent, and routes every provider
// and tool event back out as an OutputEvent.
package runner

import "strings"

// InputKind classifies a parsed UserInput.
type InputKind int

const (
	InputMessage InputKind = iota
	InputCommand
	InputCancel
	InputEmpty
)

// UserInput is one turn of raw input from the interface, already parsed
// into a message, a recognized command, a cancellation, or nothing.
type UserInput struct {
	Kind    InputKind
	Text    string // message body, for InputMessage
	Command string // canonical command name (no alias, no slash), for InputCommand
	Args    string // remainder after the command name
}

// commandAliases maps every reserved token from the command language to
// its canonical name.
var commandAliases = map[string]string{
	"quit": "quit", "exit": "quit", "q": "quit",
	"clear": "clear", "c": "clear",
	"reset": "reset",
	"help":  "help", "?": "help",
	"history": "history", "h": "history",
	"memory": "memory", "mem": "memory",
	"tools": "tools", "t": "tools",
	"agents": "agents", "a": "agents",
	"delegate": "delegate",
	"system":   "system",
	"debug":    "debug",
	"trace":    "trace",
}

// ParseInput turns one line of raw terminal input into a UserInput.
// Cancellation (Ctrl-C) never comes through here — an AgentInterface
// constructs InputCancel directly from its own signal handling.
func ParseInput(raw string) UserInput {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return UserInput{Kind: InputEmpty}
	}

	if strings.HasPrefix(trimmed, "@") {
		rest := strings.TrimPrefix(trimmed, "@")
		name, task, _ := strings.Cut(rest, " ")
		return UserInput{Kind: InputCommand, Command: "delegate", Args: strings.TrimSpace(name + " " + strings.TrimSpace(task))}
	}

	if strings.HasPrefix(trimmed, "/") {
		body := strings.TrimPrefix(trimmed, "/")
		name, args, _ := strings.Cut(body, " ")
		canonical, known := commandAliases[strings.ToLower(name)]
		if !known {
			// Unknown slash strings fall through as an ordinary message.
			return UserInput{Kind: InputMessage, Text: trimmed}
		}
		return UserInput{Kind: InputCommand, Command: canonical, Args: strings.TrimSpace(args)}
	}

	return UserInput{Kind: InputMessage, Text: trimmed}
}
