package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/p-arndt/driverpool/internal/config"
	"github.com/p-arndt/driverpool/protocol"
)

// runPs lists tracked drivers by calling the daemon API.
func runPs(args []string) int {
	fs := flag.NewFlagSet("ps", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "path to driverpool.yaml (used to get listen and api_key)")
	host := fs.String("host", "", "daemon URL (e.g. http://127.0.0.1:4440); overrides config listen")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	baseURL := *host
	apiKey := os.Getenv("DRIVERPOOL_API_KEY")
	if baseURL == "" {
		path := *cfgPath
		if path == "" {
			for _, p := range []string{"driverpool.yaml", "/etc/driverpool/driverpool.yaml"} {
				if _, err := os.Stat(p); err == nil {
					path = p
					break
				}
			}
		}
		cfg, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ps: load config: %v\n", err)
			return 1
		}
		baseURL = "http://" + cfg.Listen
		if apiKey == "" {
			apiKey = cfg.APIKey
		}
	}

	drivers, err := fetchDrivers(context.Background(), baseURL, apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ps: %v\n", err)
		return 1
	}

	now := time.Now()
	fmt.Printf("%-14s %-16s %-14s %-10s %s\n", "DRIVER ID", "FINGERPRINT", "BROWSER", "CREATED", "ENDPOINT")
	for _, d := range drivers {
		created := d.CreatedAt.Local().Format("2006-01-02")
		if t := d.CreatedAt.Local(); t.Year() == now.Year() && t.YearDay() == now.YearDay() {
			created = t.Format("15:04:05")
		}
		fmt.Printf("%-14s %-16s %-14s %-10s %s\n", d.ID, d.Fingerprint, d.Browser, created, d.Endpoint)
	}
	return 0
}

func fetchDrivers(ctx context.Context, baseURL, apiKey string) ([]protocol.DriverInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/drivers", nil)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach daemon at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daemon returned %s", resp.Status)
	}

	var drivers []protocol.DriverInfo
	if err := json.NewDecoder(resp.Body).Decode(&drivers); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return drivers, nil
}
