// Package main is the voxelpick command itself.
package main

import (
	"fmt"
	"os"

	"go.viam.com/voxel/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
