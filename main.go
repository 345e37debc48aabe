package main

import "github.com/papapumpkin/sleigh/cmd"

func main() {
	cmd.Execute()
}
