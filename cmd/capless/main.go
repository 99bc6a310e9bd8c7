package main

import "github.com/erniesg/capless/internal/cli"

func main() {
	cli.Main()
}
