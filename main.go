package main

import "github.com/genterm/genterm/cmd"

func main() {
	cmd.Execute()
}
