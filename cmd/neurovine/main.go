// Command neurovine runs the NeuroVine chat assistant in the terminal.
package main

import "github.com/neurovine/assistant/internal/commands"

func main() {
	commands.Execute()
}
