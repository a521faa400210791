package main

import "github.com/kozaktomas/photo-framer/cmd"

func main() {
	cmd.Execute()
}
