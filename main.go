package main

import (
	"os"

	"fixtures/internal/app"
)

func main() {
	os.Exit(app.Execute())
}
