package main

import "poolhand/cmd"

func main() {
	cmd.Execute()
}
