package main

import "github.com/mdubravic83/POtranslate/internal/cmd"

func main() {
	cmd.Execute()
}
