package main

import "scorelib/cmd"

func main() {
	cmd.Execute()
}
