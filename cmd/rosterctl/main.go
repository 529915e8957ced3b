// Command rosterctl inspects and renews a contractor roster stored as CSV.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	app "github.com/okian/roster/internal/app"
	"github.com/okian/roster/internal/config"
	"github.com/okian/roster/internal/domain/roster"
	"github.com/okian/roster/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	file           string
	asOf           string
	rejectBadDates bool
	verbose        bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "rosterctl",
		Short: "Inspect and renew contractor engagements in a roster CSV",
		Long: `rosterctl loads a contractor roster (columns Nom, Spécialité IT,
Date début contrat, Date fin contrat) and reports contract lifecycle state.

Defaults for the expiring threshold, renewal bounds and date layouts come
from the same configuration as the server (ROSTER_CONFIG file and ROSTER_*
environment variables).`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := logger.Configure(stderr, logger.FormatText); err != nil {
				return err
			}
			level := "warn"
			if flags.verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.file, "file", "f", "", "roster CSV to load (required)")
	pf.StringVar(&flags.asOf, "as-of", "", "reference date YYYY-MM-DD (default today)")
	pf.BoolVar(&flags.rejectBadDates, "reject-bad-dates", false, "drop rows with unparseable dates instead of keeping them with an unknown date")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")
	_ = root.MarkPersistentFlagRequired("file")

	root.AddCommand(
		newStatusCmd(&flags),
		newExpiringCmd(&flags),
		newSearchCmd(&flags),
		newRenewCmd(&flags),
		newExportCmd(&flags),
	)
	return root
}

// session is a loaded roster plus the service operating on it.
type session struct {
	svc *app.Service
	sum app.LoadSummary
}

// openSession loads the configured roster file into a fresh service.
func openSession(ctx context.Context, flags *globalFlags) (*session, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if flags.asOf != "" {
		t, err := time.Parse(time.DateOnly, flags.asOf)
		if err != nil {
			return nil, fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
		}
		now = func() time.Time { return t }
	}

	policy := cfg.Policy()
	if flags.rejectBadDates {
		policy = roster.DatePolicyReject
	}

	svc := app.New(
		app.WithLogger(logger.Named("rosterctl")),
		app.WithClock(now),
		app.WithThresholdDays(cfg.ExpiringThresholdDays),
		app.WithExtensionBounds(cfg.MinExtensionDays, cfg.MaxExtensionDays),
		app.WithExportDateLayout(cfg.ExportDateLayout),
		app.WithDatePolicy(policy),
		app.WithDateLayouts(cfg.DateLayouts...),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}

	f, err := os.Open(flags.file)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sum, err := svc.Upload(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", flags.file, err)
	}
	return &session{svc: svc, sum: sum}, nil
}

// writeOutput writes the engagements matching term as CSV to path, or to w
// when path is "-" or empty.
func writeOutput(ctx context.Context, s *session, w io.Writer, path, term string) error {
	if path == "" || path == "-" {
		return s.svc.Export(ctx, w, term)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.svc.Export(ctx, f, term); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
