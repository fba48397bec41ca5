package main

import (
	"github.com/OpenCHAMI/powerctl/cmd"

	_ "github.com/OpenCHAMI/powerctl/pkg/power/all"
)

func main() {
	cmd.Execute()
}
