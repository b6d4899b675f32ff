package main

import "github.com/zjrosen/eartrainer/cmd"

var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
