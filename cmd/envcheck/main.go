// Package main provides the entry point for the envcheck CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/envcheck/cmd/envcheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
