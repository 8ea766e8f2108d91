package main

import "github.com/SciGraph/SciGraph-sub002/cmd/scigraph/commands"

func main() {
	commands.Execute()
}
