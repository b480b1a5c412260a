// Package main provides the quarry CLI.
package main

import (
	"github.com/quarrylabs/quarry/internal/cli"
)

func main() {
	cli.Execute()
}
