package main

import (
	"os"

	"github.com/qrsp/sticker-alias/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
