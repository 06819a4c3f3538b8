package main

import "niimgs/internal/cli"

func main() {
	cli.Execute()
}
