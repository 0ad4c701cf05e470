// Package main provides a performance benchmarking tool for the bidsim CLI.
// It measures execution times of the Monte Carlo and optimizer commands across
// trial counts and worker counts, running each case multiple times, treating
// the first successful run as cold and averaging the rest as warm, and writes
// CSV output for performance analysis and documentation.
//
// Prerequisites:
// - bidsim binary installed and available in PATH
// - A lot document (YAML or JSON)
//
// Usage: go run benchmark/main.go [lot-file]
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// BenchmarkCase is one command line to time.
type BenchmarkCase struct {
	Name    string
	Command string
	Args    []string
}

// BenchmarkResult holds the cold run and the average of the warm runs.
type BenchmarkResult struct {
	Case     string
	Command  string
	ColdTime string
	WarmTime string
	Runs     int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	LotFile    string
	Timeout    time.Duration
	Runs       int
	Iterations []int
	Workers    []int
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [lot-file]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		LotFile:    os.Args[1],
		Timeout:    2 * time.Minute,
		Runs:       5,
		Iterations: []int{1000, 5000, 10000},
		Workers:    []int{1, 4, 14},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config, buildCases(config))

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the bidsim binary and the lot document exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("bidsim"); err != nil {
		return fmt.Errorf("bidsim binary not found in PATH")
	}
	if _, err := os.Stat(config.LotFile); os.IsNotExist(err) {
		return fmt.Errorf("lot file not found at %s", config.LotFile)
	}
	return nil
}

// buildCases expands the configured grid into concrete command lines
func buildCases(config BenchmarkConfig) []BenchmarkCase {
	var cases []BenchmarkCase
	for _, iterations := range config.Iterations {
		for _, workers := range config.Workers {
			cases = append(cases, BenchmarkCase{
				Name:    fmt.Sprintf("simulate n=%d w=%d", iterations, workers),
				Command: "simulate",
				Args: []string{
					"--my-discount", "25", "--my-tech", "50",
					"--comp-discount-mean", "20", "--comp-discount-std", "5",
					"--comp-tech-mean", "50", "--comp-tech-std", "5",
					"--iterations", strconv.Itoa(iterations),
					"--workers", strconv.Itoa(workers),
				},
			})
		}
	}

	optimizeArgs := []string{"--my-tech", "52.35", "--comp-tech", "55", "--comp-discount", "30"}
	cases = append(cases,
		BenchmarkCase{
			Name:    "optimize grid only",
			Command: "optimize",
			Args:    append([]string{"--validate=false", "--step", "0.1"}, optimizeArgs...),
		},
		BenchmarkCase{
			Name:    "optimize validated",
			Command: "optimize",
			Args:    append([]string{"--validate=true"}, optimizeArgs...),
		},
	)
	return cases
}

// runBenchmarks executes every case with run history disabled
func runBenchmarks(config BenchmarkConfig, cases []BenchmarkCase) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d cases, %v timeout, %d runs each\n", len(cases), config.Timeout, config.Runs)

	for _, c := range cases {
		fmt.Printf("Running %s\n", c.Name)
		cold, warm := runBenchmark(config, c)

		result := BenchmarkResult{Case: c.Name, Command: c.Command, ColdTime: "TIMEOUT", WarmTime: "TIMEOUT"}
		if cold > 0 {
			result.ColdTime = fmt.Sprintf("%.3fs", cold)
			result.Runs = 1 + len(warm)
		}
		if len(warm) > 0 {
			var sum float64
			for _, t := range warm {
				sum += t
			}
			result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(warm)))
		}
		fmt.Printf("  Cold time: %s, Warm average: %s\n", result.ColdTime, result.WarmTime)
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a bidsim command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, c BenchmarkCase) (coldTime float64, warmTimes []float64) {
	args := append([]string{c.Command, "--lot-file", config.LotFile, "--output", "json", "--runs-backend", "none"}, c.Args...)

	var times []float64
	for range config.Runs {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "bidsim", args...).Output()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output, c.Command) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks that the command printed a well-formed result
func isSuccess(output []byte, command string) bool {
	var payload map[string]any
	if err := json.Unmarshal(output, &payload); err != nil {
		return false
	}
	switch command {
	case "simulate":
		_, ok := payload["win_probability"]
		return ok
	case "optimize":
		_, ok := payload["scenarios"]
		return ok
	default:
		return true
	}
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/bidsim_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"case", "cmd", "runs", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, r := range results {
		if err := writer.Write([]string{r.Case, r.Command, strconv.Itoa(r.Runs), r.ColdTime, r.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "simulate", "Monte Carlo:")
	printCommandSummary(results, "optimize", "Optimizer:")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, r := range results {
		if r.Command == command {
			fmt.Printf("  %-24s: Cold: %s, Warm: %s\n", r.Case, r.ColdTime, r.WarmTime)
		}
	}
}
