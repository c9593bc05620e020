package main

import "github.com/asthma-connect/clinic/cmd/asthma/command"

func main() {
	command.Execute()
}
