package store

import (
	"fmt"
	"maps"
	"slices"

	"github.com/huangsam/bidsim/schema"
)

// PrintLotStatus prints lot store status information.
func PrintLotStatus(status schema.LotStoreStatus) {
	fmt.Printf("Lot Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Lots: %d\n", status.TotalLots)
	if status.TotalLots > 0 {
		fmt.Printf("Last Update: %s\n", status.LastUpdateTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Oldest Entry: %s\n", status.OldestEntryTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintRunStatus prints run history status information.
func PrintRunStatus(status schema.RunStoreStatus) {
	fmt.Printf("Runs Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		fmt.Printf("Last Run ID: %s\n", status.LastRunID)
		fmt.Printf("Last Run: %s\n", status.LastRunTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Oldest Run: %s\n", status.OldestRunTime.Format("2006-01-02 15:04:05"))
		fmt.Println("Runs By Kind:")
		for _, kind := range slices.Sorted(maps.Keys(status.RunsByKind)) {
			fmt.Printf("  %s: %d\n", kind, status.RunsByKind[kind])
		}
	}
	fmt.Println("Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		fmt.Printf("  %s: %d rows\n", table, status.TableSizes[table])
	}
}
