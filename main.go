package main

import "a11y_tracker/cmd"

func main() {
	cmd.Execute()
}
