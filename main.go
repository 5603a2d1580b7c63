package main

import "github.com/khanhnv2901/cyberaudit/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
