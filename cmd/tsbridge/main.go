// Package main is the tsbridge command.
package main

import (
	"os"

	"github.com/leapstack-labs/tsbridge/internal/cli"
)

func main() {
	cli.Main(os.Exit)
}
