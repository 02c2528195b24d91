package main

import (
	"github.com/quakelab/etas/pkg/cmd"
)

func main() {
	cmd.Execute()
}
