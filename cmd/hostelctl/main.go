package main

import (
	"os"

	"hostel-backend/cmd/hostelctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
