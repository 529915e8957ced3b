package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/okian/roster/internal/domain/lifecycle"
	"github.com/okian/roster/internal/domain/model"
	"github.com/spf13/cobra"
)

func newStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show lifecycle aggregates for the roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}
			st, err := s.svc.Status(ctx)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), st, s.sum.Issues)
			return nil
		},
	}
}

func newExpiringCmd(flags *globalFlags) *cobra.Command {
	var threshold int
	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "List engagements ending within the threshold, expired ones included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = s.svc.ThresholdDays()
			}
			es, err := s.svc.Expiring(ctx, threshold)
			if err != nil {
				return err
			}
			printEngagements(cmd.OutOrStdout(), es, s.svc.ThresholdDays())
			return nil
		},
	}
	cmd.Flags().IntVarP(&threshold, "threshold", "t", lifecycle.DefaultThresholdDays, "inclusive threshold in days")
	return cmd
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search [TERM]",
		Short: "List engagements whose row contains TERM, ignoring case",
		Long:  "Matches TERM against every column of the row. Without TERM the full roster is listed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}
			term := ""
			if len(args) == 1 {
				term = args[0]
			}
			es, err := s.svc.Search(ctx, term)
			if err != nil {
				return err
			}
			printEngagements(cmd.OutOrStdout(), es, s.svc.ThresholdDays())
			return nil
		},
	}
}

func newRenewCmd(flags *globalFlags) *cobra.Command {
	var (
		all       bool
		name      string
		days      int
		threshold int
		out       string
	)
	cmd := &cobra.Command{
		Use:   "renew",
		Short: "Extend end dates of every expiring engagement or of one by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all == (name != "") {
				return errors.New("exactly one of --all or --name is required")
			}
			ctx := cmd.Context()
			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}

			var res lifecycle.RenewResult
			if all {
				if !cmd.Flags().Changed("threshold") {
					threshold = s.svc.ThresholdDays()
				}
				res, err = s.svc.RenewExpiring(ctx, threshold, days)
			} else {
				res, err = s.svc.RenewOne(ctx, name, days)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(res.Renewed) == 0 {
				fmt.Fprintln(w, "no engagement renewed")
			} else {
				fmt.Fprintf(w, "renewed %d engagement(s) by %d days: %s\n",
					len(res.Renewed), res.ExtensionDays, strings.Join(res.Renewed, ", "))
			}
			if out == "" {
				if len(res.Renewed) > 0 {
					fmt.Fprintf(w, "%s not modified; pass --out to save the renewed roster\n", flags.file)
				}
				return nil
			}
			return writeOutput(ctx, s, w, out, "")
		},
	}
	f := cmd.Flags()
	f.BoolVar(&all, "all", false, "renew every engagement expiring within --threshold days")
	f.StringVar(&name, "name", "", "renew the engagement with this name")
	f.IntVarP(&days, "days", "d", 0, "extension length in days")
	f.IntVarP(&threshold, "threshold", "t", lifecycle.DefaultThresholdDays, "inclusive threshold in days for --all")
	f.StringVarP(&out, "out", "o", "", "write the renewed roster as CSV to this file (- for stdout)")
	_ = cmd.MarkFlagRequired("days")
	return cmd
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var out, query string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the roster as CSV with recomputed remaining days",
		Long:  "Writes every engagement, or with --query only those whose row contains the term, in the input column layout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}
			return writeOutput(ctx, s, cmd.OutOrStdout(), out, query)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "destination file (- for stdout)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "export only engagements matching this search term")
	return cmd
}

func printStatus(w io.Writer, st model.RosterStatus, issues []string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "as of\t%s\n", st.AsOf)
	fmt.Fprintf(tw, "total\t%d\n", st.Total)
	fmt.Fprintf(tw, "expired\t%d\n", st.Expired)
	fmt.Fprintf(tw, "expiring within %d days\t%d\n", st.ThresholdDays, st.ExpiringSoon)
	avg := "n/a"
	if st.AverageRemaining != nil {
		avg = strconv.FormatFloat(*st.AverageRemaining, 'f', 1, 64)
	}
	fmt.Fprintf(tw, "average days remaining\t%s\n", avg)
	if st.Buckets.Unknown > 0 {
		fmt.Fprintf(tw, "unknown end date\t%d\n", st.Buckets.Unknown)
	}

	specialties := make([]string, 0, len(st.SpecialtyHistogram))
	for k := range st.SpecialtyHistogram {
		specialties = append(specialties, k)
	}
	sort.Strings(specialties)
	for _, k := range specialties {
		fmt.Fprintf(tw, "  %s\t%d\n", k, st.SpecialtyHistogram[k])
	}
	_ = tw.Flush()

	for _, issue := range issues {
		fmt.Fprintf(w, "warning: %s\n", issue)
	}
}

func printEngagements(w io.Writer, es []model.Engagement, threshold int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSPECIALTY\tEND\tDAYS\tSTATE")
	for _, e := range es {
		end := e.RawEnd
		if e.End.Valid {
			end = e.End.String()
		}
		days := "?"
		if d, ok := e.Remaining(); ok {
			days = strconv.Itoa(d)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Specialty, end, days, lifecycle.Bucket(e, threshold))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d engagement(s)\n", len(es))
}
