package main

import "github.com/KaramelBytes/petroloom-cli/cmd"

func main() {
	cmd.Execute()
}
