package main

import "github.com/ruppin/TheMatrix/cmd"

func main() {
	cmd.Execute()
}
