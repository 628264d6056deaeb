package main

import "chatbox/internal/cli"

func main() {
	cli.Execute()
}
