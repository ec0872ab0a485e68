package main

import "github.com/braddown/pii-compliance-tool-sub001/internal/app/server"

func main() {
	server.Run()
}
