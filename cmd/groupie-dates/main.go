package main

import (
	"os"

	"github.com/klabast/wb-services/groupie-dates/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
