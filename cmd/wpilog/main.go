/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/wpilogviewer/cmd/wpilog/cmd"
	"github.com/ssargent/wpilogviewer/pkg/di"
)

func main() {
	cmd.SetContainer(di.NewContainer())
	cmd.Execute()
}
