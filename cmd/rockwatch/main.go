package main

import "rockwatch/internal/cli"

func main() {
	cli.Execute()
}
