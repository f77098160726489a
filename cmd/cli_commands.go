package cmd

import "strings"

// commandDocs documentation info used for help command.
type commandDocs struct {
	name    string
	params  string
	summary string
	// minArgs counts the arguments after the name.
	minArgs int
}

var builtinDocs = []commandDocs{
	{name: "help", summary: "Show this help."},
	{name: "clear", summary: "Clear the screen."},
	{name: "quit", summary: "Leave the prompt."},
	{name: "exit", summary: "Leave the prompt."},
	{name: ":output", params: "standard|raw|json|quoted-json|wire|dump", summary: "Switch the output mode.", minArgs: 1},
	{name: ":width", params: "columns", summary: "Elide bulk strings wider than columns; 0 follows the terminal, -1 disables.", minArgs: 1},
	{name: "decode", params: "bytes [bytes ...]", summary: "Decode every frame in the quoted protocol bytes.", minArgs: 1},
	{name: "encode", params: "command [arg ...]", summary: "Show the wire form of a command.", minArgs: 1},
	{name: "eval", params: "script numkeys [key ...] [arg ...]", summary: "Run a Lua script and show its reply.", minArgs: 2},
}

func lookupBuiltin(name string) (commandDocs, bool) {
	for _, doc := range builtinDocs {
		if strings.EqualFold(doc.name, name) {
			return doc, true
		}
	}
	return commandDocs{}, false
}

func builtinNames() []string {
	names := make([]string, len(builtinDocs))
	for i, doc := range builtinDocs {
		names[i] = doc.name
	}
	return names
}
