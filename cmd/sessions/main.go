package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/tierpay/internal/client"
	"github.com/angelmondragon/tierpay/internal/history"
	"github.com/angelmondragon/tierpay/internal/sessions"
	"github.com/angelmondragon/tierpay/pkg/config"
)

func main() {
	var (
		customer = flag.String("customer", "", "filter by customer email")
		start    = flag.String("start", "", "start date (YYYY-MM-DD), requires -end")
		end      = flag.String("end", "", "end date (YYYY-MM-DD), requires -start")
		csvPath  = flag.String("csv", "", "write a CSV export to this path, or - for stdout")
		baseURL  = flag.String("base-url", "", "backend API base URL (overrides TIERPAY_API_BASE_URL)")
	)
	flag.Parse()

	_ = godotenv.Load()

	var clientCfg config.ClientConfig
	if cfg, err := config.Load(); err == nil {
		clientCfg = cfg.Client
	}
	if *baseURL != "" {
		clientCfg.BaseURL = *baseURL
	}

	if err := run(context.Background(), clientCfg, *customer, *start, *end, *csvPath); err != nil {
		fmt.Fprintln(os.Stderr, "sessions query failed:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, clientCfg config.ClientConfig, customer, start, end, csvPath string) error {
	if (start == "") != (end == "") {
		return fmt.Errorf("-start and -end must be provided together")
	}

	api := client.New(client.WithBaseURL(clientCfg.BaseURL))

	list, err := fetch(ctx, api, customer, start, end)
	if err != nil {
		return err
	}

	if csvPath != "" {
		if err := writeCSV(csvPath, list); err != nil {
			return err
		}
	} else {
		printSessions(list)
	}

	stats := history.Summarize(list)
	fmt.Printf("\n%d sessions, %d paid, revenue %s\n",
		stats.TotalSessions, stats.PaidSessions, stats.Revenue().StringFixed(2))
	return nil
}

func fetch(ctx context.Context, api *client.Client, customer, start, end string) ([]sessions.PurchaseSessionDTO, error) {
	switch {
	case customer != "":
		return api.ListSessionsByCustomer(ctx, customer)
	case start != "":
		return api.ListSessionsByDateRange(ctx, start, end)
	default:
		return api.ListSessions(ctx)
	}
}

func writeCSV(path string, list []sessions.PurchaseSessionDTO) error {
	if path == "-" {
		return history.WriteCSV(os.Stdout, list)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := history.WriteCSV(f, list); err != nil {
		_ = f.Close()
		return err
	}
	// A close failure can swallow the final flush to disk.
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	return nil
}

func printSessions(list []sessions.PurchaseSessionDTO) {
	for _, s := range list {
		fmt.Printf("%-28s %-30s %8d %-4s %-10s %s\n",
			s.ID, s.CustomerEmail, s.AmountTotal, s.Currency, s.Status, s.PaymentStatus)
	}
}
