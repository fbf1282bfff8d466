package main

import "github.com/vedsharma/reqkit/cmd"

func main() {
	cmd.Execute()
}
