package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/infrastructure/clients/denticompare"
	"github.com/savelydental/Savely/internal/infrastructure/observability"
	"github.com/savelydental/Savely/pkg/config"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed
type app struct {
	apiURL  string
	timeout time.Duration
	out     io.Writer

	client  *denticompare.HTTPClient
	search  *services.SearchService
	compare *services.CompareService
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:          "savelyctl",
		Short:        "Query and seed the DentiCompare API from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.apiURL == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				a.apiURL = cfg.API.BaseURL
			}
			observability.InitLogger("savelyctl", "development", "warn")

			a.client = denticompare.NewClient(a.apiURL, a.timeout, nil)
			a.search = services.NewSearchService(a.client, services.NewFetchGuard(), nil)
			a.compare = services.NewCompareService(a.client)
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api", "", "API base URL (defaults to API_BASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 10*time.Second, "Per-request timeout")

	rootCmd.AddCommand(newSeedCmd(a))
	rootCmd.AddCommand(newTreatmentsCmd(a))
	rootCmd.AddCommand(newCitiesCmd(a))
	rootCmd.AddCommand(newSearchCmd(a))
	rootCmd.AddCommand(newCompareCmd(a))

	return rootCmd
}
