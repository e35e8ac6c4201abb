package main

import "github.com/okarpenko/mangaua/cmd"

func main() {
	cmd.Execute()
}
