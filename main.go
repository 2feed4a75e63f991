package main

import "github.com/jordandm999/christmas-piano/cmd"

func main() {
	cmd.Execute()
}
