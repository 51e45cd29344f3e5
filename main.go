package main

import (
	"github.com/theo/glucolog/cmd"
)

func main() {
	cmd.Execute()
}
