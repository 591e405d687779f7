package main

import (
	"fmt"
	"os"

	"github.com/bibikovilya/prior-import/cmd/export"
	"github.com/bibikovilya/prior-import/cmd/importcmd"
	"github.com/bibikovilya/prior-import/cmd/root"
)

func init() {
	root.Init()
	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(export.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
