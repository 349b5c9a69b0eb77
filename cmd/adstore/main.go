package main

import "adstore/cmd/adstore/commands"

func main() {
	commands.Execute()
}
