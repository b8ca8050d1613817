package main

import "lock-sync/cmd"

func main() {
	cmd.Execute()
}
