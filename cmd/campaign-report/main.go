// Command campaign-report prints campaign reconciliation reports as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"barops_backend/internal/campaigns/repository"
	"barops_backend/internal/campaigns/service"
	"barops_backend/internal/campaigns/transport"
	"barops_backend/internal/umbler"
	"barops_backend/platform/config"
	"barops_backend/platform/db"
	"barops_backend/platform/logger"
	"barops_backend/platform/validator"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	barID  int
	pretty bool
}

type reportOptions struct {
	campaignID  string
	eventDate   string
	mode        string
	noReconcile bool
}

type listOptions struct {
	limit    int
	minSends int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "campaign-report",
		Short:         "Reconcile bulk WhatsApp campaigns against reservations and visits",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().IntVar(&opts.barID, "bar", 0, "bar id (defaults to RECON_DEFAULT_BAR_ID)")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", true, "indent JSON output")

	root.AddCommand(newReportCommand(opts), newListCommand(opts))
	return root
}

func newReportCommand(root *rootOptions) *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the reconciliation report of one campaign",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reconcile := !opts.noReconcile
			req := transport.ReportRequest{
				BarID:     root.barID,
				EventDate: opts.eventDate,
				Mode:      strings.ReplaceAll(strings.ToLower(opts.mode), "-", "_"),
				Reconcile: &reconcile,
			}
			if err := validator.New().Struct(req); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				report, err := svc.Report(ctx, opts.campaignID, req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report, root.pretty)
			})
		},
	}
	cmd.Flags().StringVar(&opts.campaignID, "campaign", "", "bulk-send session id")
	cmd.Flags().StringVar(&opts.eventDate, "event-date", "", "event date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "pre_event or post_event (derived from the event date when empty)")
	cmd.Flags().BoolVar(&opts.noReconcile, "no-reconcile", false, "only resolve recipients, skip the ledgers")
	_ = cmd.MarkFlagRequired("campaign")
	return cmd
}

func newListCommand(root *rootOptions) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the bar's recent bulk campaigns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := transport.ListCampaignsRequest{BarID: root.barID, Limit: opts.limit}
			if cmd.Flags().Changed("min-sends") {
				req.MinSends = &opts.minSends
			}
			if err := validator.New().Struct(req); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				list, err := svc.ListCampaigns(ctx, req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), list, root.pretty)
			})
		},
	}
	cmd.Flags().IntVar(&opts.limit, "limit", 50, "sessions to fetch from the provider")
	cmd.Flags().IntVar(&opts.minSends, "min-sends", 0, "minimum sends for a session to count as a bulk campaign")
	return cmd
}

// withService wires the same service the API uses. Logs go to stderr so
// stdout stays valid JSON.
func withService(ctx context.Context, fn func(ctx context.Context, svc *service.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewWithWriter(cfg.Env, os.Stderr)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	fallback := umbler.Credentials{APIToken: cfg.GetUmblerAPIToken(), OrganizationID: cfg.GetUmblerOrganizationID()}
	svc := service.New(umbler.NewClient(cfg, log), repository.New(pool), cfg, fallback, log)

	return fn(ctx, svc)
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
