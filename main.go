package main

import "github.com/notargets/gofea/cmd"

func main() {
	cmd.Execute()
}
