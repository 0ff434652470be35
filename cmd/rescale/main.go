package main

import (
	"os"

	"github.com/Fepozopo/rescale/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
