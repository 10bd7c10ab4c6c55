package main

import "arvenne.fr/craftlaunch/cmd"

func main() {
	cmd.Execute()
}
