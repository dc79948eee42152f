package main

import "github.com/devicelab-dev/locator-runner/pkg/cli"

func main() {
	cli.Execute()
}
