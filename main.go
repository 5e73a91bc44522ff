package main

import "github.com/KaramelBytes/gigstats-cli/cmd"

func main() {
	cmd.Execute()
}
