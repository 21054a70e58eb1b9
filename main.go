package main

import (
	"github.com/sparkdrop/sparkdrop/cmd"
	"github.com/sparkdrop/sparkdrop/internal/logging"
)

func main() {
	logging.Init()
	cmd.Execute()
}
