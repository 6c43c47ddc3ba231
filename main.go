package main

import "mermdv/cmd"

func main() {
	cmd.Execute()
}
