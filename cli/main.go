package main

import "debate_live/cli/cmd"

func main() {
	cmd.Execute()
}
