package main

import "github.com/df07/go-sphere-tracer/cmd"

func main() {
	cmd.Execute()
}
