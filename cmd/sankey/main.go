package main

import (
	"github.com/joho/godotenv"

	"financial_sankey/pkg/cli"
)

func main() {
	godotenv.Load()
	cli.Execute()
}
