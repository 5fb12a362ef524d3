package main

import "github.com/dreamdenizen/everest-updater/cmd"

func main() {
	cmd.Execute()
}
