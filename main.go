package main

import "github.com/retentia/churnsight/cmd"

func main() {
	cmd.Execute()
}
