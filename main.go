package main

import "github.com/alde/tinypdf/cmd"

func main() {
	cmd.Execute()
}
