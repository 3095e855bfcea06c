package main

import "github.com/oshokin/tpi/cmd/tpi/cmd"

func main() {
	cmd.Execute()
}
