// Package main provides the entry point for the aidocs CLI.
package main

import (
	"os"

	"github.com/Sergey0703/aidocsbackend-sub002/cmd/aidocs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
