package main

import (
	"os"

	"github.com/rmtsu9/OCRdocTH/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
