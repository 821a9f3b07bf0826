// Package main is the entry point for the fsql CLI binary.
package main

import (
	"os"

	cli "fsql/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
