package main

import (
	"bolsawatch/internal/cli"
)

func main() {
	cli.Execute()
}
