// Package main is the entry point of the bidsim CLI.
package main

import (
	"github.com/huangsam/bidsim/cmd"
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/internal/store"
)

func main() {
	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Cannot stop profiling", stopErr)
	}
	store.CloseStores()
	if err != nil {
		contract.LogFatal("Error", err)
	}
}
