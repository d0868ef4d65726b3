package main

import "github.com/agentic-research/mjcusd/cmd"

func main() {
	cmd.Execute()
}
