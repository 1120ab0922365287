package main

import (
	"github.com/inkwell-cms/inkwell/cmd"
)

func main() {
	cmd.Execute()
}
