package main

import "github.com/lepinkainen/lumo/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
