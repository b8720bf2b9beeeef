package main

import "github.com/jmcleod/waypoint/cmd/waypoint/cmd"

func main() {
	cmd.Execute()
}
