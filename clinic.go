package main

import "github.com/asthma-connect/clinic/api"

func main() {
	api.MainLoop()
}
