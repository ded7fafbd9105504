package main

import (
	"os"

	"tuido/cmd/tuido/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil))
}
