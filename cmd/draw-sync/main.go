package main

import "github.com/pfrederiksen/draw-sync/internal/cli"

func main() {
	cli.Execute()
}
