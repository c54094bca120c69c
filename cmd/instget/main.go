package main

import "github.com/instget/instget/cmd/instget/cmd"

func main() {
	cmd.Execute()
}
