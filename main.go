package main

import "github.com/MorrisonWill/willmorrison.com/cmd"

func main() {
	cmd.Execute()
}
