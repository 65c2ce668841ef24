package main

import (
	"os"

	"github.com/dmitrijs2005/lifelog/internal/keyctl"
)

func main() {
	if err := keyctl.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
