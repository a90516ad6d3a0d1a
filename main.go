package main

import "kling-studio/cmd"

func main() {
	cmd.Execute()
}
