package main

import "github.com/suteetoe/shopstock/internal/cli"

func main() {
	cli.Execute()
}
