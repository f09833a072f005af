// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

// Package main is the entrypoint for the dagsim CLI.
package main

import "github.com/bearbattle/dag-scheduling-sim/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
