package main

import "github.com/liminalsalt/salt/internal/cli"

func main() {
	cli.Execute()
}
