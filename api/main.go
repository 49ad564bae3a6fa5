package main

import (
	"github.com/joho/godotenv"

	"github.com/openslot/openslot/api/cmd/openslot"
)

func main() {
	_ = godotenv.Load()
	openslot.Execute()
}
