package main

import "inkwell/commands"

func main() {
	commands.Execute()
}
