package main

import "github.com/mcoot/backgammon-go/internal/cli"

func main() {
	cli.Execute()
}
