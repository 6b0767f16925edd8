package main

import "github.com/Yuqi1124/TownRecord/internal/cli"

func main() {
	cli.Execute()
}
