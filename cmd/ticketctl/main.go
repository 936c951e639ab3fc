// Package main is the entry point for ticketctl, the operator CLI for skill extraction and
// auto-assignment.
package main

import (
	"os"

	"github.com/spec-kit/ticket-assigner/cmd/ticketctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
