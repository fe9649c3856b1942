package main

import (
	"github.com/tabledep/tabledep/cmd"
)

func main() {
	cmd.Execute()
}
