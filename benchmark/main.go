// Package main provides a performance benchmarking tool for the hockeystick CLI.
// It measures analyze times for several topic sets, running each test multiple times,
// treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - hockeystick binary installed and available in PATH
// - Network access to Google Trends
//
// Usage: go run benchmark/main.go [timeframe]
//
//	timeframe: Optional Google Trends window (defaults to the CLI default)
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	TopicSet    string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Timeframe   string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	TopicSets   map[string][]string
	SetOrder    []string
	MaxBkps     []int
}

func main() {
	config := BenchmarkConfig{
		Timeout:     2 * time.Minute,
		NoCacheRuns: 2,
		CacheRuns:   4,
		TopicSets: map[string][]string{
			"startups": {"Groupon", "Uber", "Airbnb", "WeWork"},
			"social":   {"Facebook", "Instagram", "TikTok"},
			"single":   {"Bitcoin"},
		},
		SetOrder: []string{"single", "social", "startups"},
		MaxBkps:  []int{3, 10},
	}
	if len(os.Args) == 2 {
		config.Timeframe = os.Args[1]
	}

	if _, err := exec.LookPath("hockeystick"); err != nil {
		fmt.Printf("Prerequisites check failed: hockeystick binary not found in PATH\n")
		os.Exit(1)
	}

	cacheFile, err := os.CreateTemp("", "hockeystick-bench-*.db")
	if err != nil {
		fmt.Printf("Failed to create cache file: %v\n", err)
		os.Exit(1)
	}
	_ = cacheFile.Close()
	defer func() { _ = os.Remove(cacheFile.Name()) }()

	results := runBenchmarks(config, cacheFile.Name())

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results, config)
}

// runBenchmarks executes all benchmark tests across configured topic sets
func runBenchmarks(config BenchmarkConfig, cacheFile string) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d topic sets, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.TopicSets), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, name := range config.SetOrder {
		topics := config.TopicSets[name]
		fmt.Printf("Benchmarking %s (%s)\n", name, strings.Join(topics, ", "))

		for _, k := range config.MaxBkps {
			command := fmt.Sprintf("analyze-k%d", k)
			args := append([]string{"analyze", "--skip-charts", "--max-bkps", fmt.Sprint(k)}, topics...)
			if config.Timeframe != "" {
				args = append(args, "--timeframe", config.Timeframe)
			}
			results = append(results, runBenchmarkSuite(config, name, command, args, cacheFile))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, topicSet, command string, args []string, cacheFile string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, topicSet)

	// Helper to run a benchmark phase
	runPhase := func(cacheArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, slices.Concat(args, cacheArgs), numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase([]string{"--cache-backend", "none"}, config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs on a fresh SQLite file
	_ = os.Remove(cacheFile)
	coldTime, warmAvg := runPhase([]string{"--cache-backend", "sqlite", "--cache-db-connect", cacheFile}, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		TopicSet:    topicSet,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a hockeystick command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, args []string, numRuns int) (coldTime float64, warmTimes []float64) {
	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("hockeystick", args...)
		cmd.Env = append(os.Environ(), "HOCKEYSTICK_LOG_LEVEL=error")

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.Output()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	return strings.Contains(string(output), "Analysis completed in")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/hockeystick_benchmark_%s.csv", timestamp)

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
	if err := writer.Write([]string{"topics", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.TopicSet, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult, config BenchmarkConfig) {
	fmt.Printf("Benchmark complete\n")

	for _, k := range config.MaxBkps {
		command := fmt.Sprintf("analyze-k%d", k)
		fmt.Printf("Analyze (max-bkps %d):\n", k)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-10s: No-cache: %s, Cold: %s, Warm: %s\n", result.TopicSet, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
