// Package main provides a standalone health check command for NutriGuide
// This command can be used for Docker health checks, monitoring scripts, and debugging
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alchemorsel/nutriguide/pkg/healthcheck"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Config holds command-line configuration
type Config struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
}

func main() {
	os.Exit(run(parseFlags(), os.Stdout))
}

// parseFlags parses command-line flags
func parseFlags() Config {
	config := Config{}

	flag.StringVar(&config.URL, "url", "", "Health check endpoint URL (default $HEALTH_CHECK_URL or http://localhost:8080/health)")
	flag.DurationVar(&config.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.BoolVar(&config.Verbose, "verbose", false, "Verbose output")
	flag.StringVar(&config.OutputFormat, "format", "text", "Output format: text, json")
	flag.StringVar(&config.ExpectedStatus, "expect", "degraded", "Worst acceptable status: healthy, degraded")
	flag.IntVar(&config.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&config.RetryDelay, "retry-delay", time.Second, "Delay between retries")

	flag.Parse()

	if config.URL == "" {
		config.URL = os.Getenv("HEALTH_CHECK_URL")
	}
	if config.URL == "" {
		config.URL = "http://localhost:8080/health"
	}

	return config
}

// run performs the remote health check and returns the exit code
func run(config Config, out io.Writer) int {
	client := &http.Client{Timeout: config.Timeout}

	var lastError error
	for attempt := 0; attempt <= config.RetryCount; attempt++ {
		if attempt > 0 {
			if config.Verbose {
				fmt.Fprintf(out, "Retrying in %v... (attempt %d/%d)\n", config.RetryDelay, attempt, config.RetryCount)
			}
			time.Sleep(config.RetryDelay)
		}

		resp, err := client.Get(config.URL)
		if err != nil {
			lastError = err
			continue
		}

		response, err := decode(resp)
		if err != nil {
			lastError = err
			continue
		}
		return output(response, config, out)
	}

	fmt.Fprintf(out, "Health check failed after %d attempts: %v\n", config.RetryCount+1, lastError)
	return exitCodeError
}

func decode(resp *http.Response) (healthcheck.Response, error) {
	defer resp.Body.Close()

	var response healthcheck.Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return response, fmt.Errorf("failed to decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	return response, nil
}

// output prints the response and maps its status to an exit code
func output(response healthcheck.Response, config Config, out io.Writer) int {
	switch config.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(response, "", "  ")
		fmt.Fprintln(out, string(data))
	default:
		fmt.Fprintf(out, "Status: %s\n", response.Status)
		fmt.Fprintf(out, "Version: %s\n", response.Version)
		fmt.Fprintf(out, "Timestamp: %s\n", response.Timestamp.Format(time.RFC3339))
		if config.Verbose {
			for _, check := range response.Checks {
				fmt.Fprintf(out, "  %s: %s", check.Name, check.Status)
				if check.Message != "" {
					fmt.Fprintf(out, " (%s)", check.Message)
				}
				fmt.Fprintln(out)
			}
		}
	}

	switch response.Status {
	case healthcheck.StatusHealthy:
		return exitCodeSuccess
	case healthcheck.StatusDegraded:
		if healthcheck.Status(config.ExpectedStatus) == healthcheck.StatusHealthy {
			return exitCodeFailure
		}
		return exitCodeSuccess
	default:
		return exitCodeFailure
	}
}
