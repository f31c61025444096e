package main

import (
	"incback/cmd"
)

func main() {
	cmd.Execute()
}
