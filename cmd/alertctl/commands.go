package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/internal/domain/services/alertquery"
	"github.com/fraud-desk/alert_service/internal/domain/services/enrichment"
	"github.com/fraud-desk/alert_service/internal/infrastructure/config"
	"github.com/fraud-desk/alert_service/internal/infrastructure/database"
	"github.com/fraud-desk/alert_service/pkg/auth"
	"github.com/fraud-desk/alert_service/pkg/pagination"
	"github.com/fraud-desk/alert_service/pkg/version"
)

func queryCmd() *cobra.Command {
	var (
		file       string
		reference  string
		asJSON     bool
		sortRules  []string
		period     string
		periodDate string
		page       int
		pageSize   int
		criteria   entities.FilterCriteria
		statuses   []string
		sources    []string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter, sort and page an alert extract",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadAlerts(file)
			if err != nil {
				return err
			}
			refNow, err := referenceTime(reference)
			if err != nil {
				return err
			}

			pipeline := alertquery.NewPipeline(nil, pageSize)
			rules, err := alertquery.ParseSortRules(sortRules, pipeline.Registry().Attributes())
			if err != nil {
				return err
			}
			window, err := alertquery.ParsePeriod(period, periodDate)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				criteria.Statuses = append(criteria.Statuses, entities.AlertStatus(strings.ToUpper(s)))
			}
			for _, s := range sources {
				criteria.Sources = append(criteria.Sources, entities.AlertSource(strings.ToUpper(s)))
			}

			result, err := pipeline.Run(records, alertquery.Query{
				Criteria:     criteria,
				Rules:        rules,
				Period:       window,
				Page:         pagination.Pagination{Page: page, PageSize: pageSize},
				ReferenceNow: refNow,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result)
			}
			printAlerts(out, result.Records)
			fmt.Fprintf(out, "\npage %d of %d, %d matched\n",
				result.PageInfo.CurrentPage, result.PageInfo.TotalPages, result.Matched)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&file, "file", "f", "", "Alert extract (JSON array)")
	flags.StringVar(&reference, "reference", "", "Reference date YYYY-MM-DD (default today)")
	flags.BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	flags.StringArrayVarP(&sortRules, "sort", "s", nil, "Sort rule Attribute:Direction, repeatable")
	flags.StringVar(&period, "period", "", "Period window (7D, MTD, QTD, YTD, SPECIFIC, ALL)")
	flags.StringVar(&periodDate, "period-date", "", "Anchor date of the period window")
	flags.IntVar(&page, "page", 1, "Page number")
	flags.IntVar(&pageSize, "page-size", pagination.DefaultPageSize, "Page size")
	flags.StringVar(&criteria.Customer, "customer", "", "Customer name or CIF substring")
	flags.StringVar(&criteria.Date, "date", "", "Transaction date")
	flags.StringVar(&criteria.Time, "time", "", "Transaction time prefix")
	flags.StringSliceVar(&statuses, "status", nil, "Alert statuses")
	flags.StringSliceVar(&sources, "source", nil, "Alert sources (AI, RB, IC)")
	flags.StringSliceVar(&criteria.Types, "type", nil, "Transaction types")
	flags.StringSliceVar(&criteria.Countries, "country", nil, "Countries")
	flags.StringSliceVar(&criteria.Currencies, "currency", nil, "Currency codes")
	flags.StringVar(&criteria.AmountFrom, "amount-from", "", "Minimum amount")
	flags.StringVar(&criteria.AmountTo, "amount-to", "", "Maximum amount")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func enrichCmd() *cobra.Command {
	var file, tables string

	cmd := &cobra.Command{
		Use:   "enrich [alert-id]",
		Short: "Print the synthesized enrichment of one alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadAlerts(file)
			if err != nil {
				return err
			}

			ref := enrichment.DefaultTables()
			if tables != "" {
				if ref, err = enrichment.LoadTables(tables); err != nil {
					return err
				}
			}
			synth, err := enrichment.NewSynthesizer(ref)
			if err != nil {
				return err
			}

			for _, r := range records {
				if r.ID == args[0] {
					return writeJSON(cmd.OutOrStdout(), entities.AlertDetail{Alert: r, Enrichment: synth.Synthesize(r)})
				}
			}
			return fmt.Errorf("alert %q not found in %s", args[0], file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Alert extract (JSON array)")
	cmd.Flags().StringVarP(&tables, "tables", "t", "", "Reference tables (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func statsCmd() *cobra.Command {
	var (
		file      string
		reference string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize an alert extract",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadAlerts(file)
			if err != nil {
				return err
			}
			refNow, err := referenceTime(reference)
			if err != nil {
				return err
			}

			summary := alertquery.Summarize(records)
			monthly := alertquery.MonthlyCounts(records, refNow)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]interface{}{"summary": summary, "months": monthly})
			}

			fmt.Fprintf(out, "Alerts:    %d\n", summary.TotalAlerts)
			fmt.Fprintf(out, "Customers: %d\n", summary.UniqueCustomers)
			fmt.Fprintf(out, "Value:     %s\n", summary.TotalValue.StringFixed(2))
			fmt.Fprintf(out, "Pending %d, fraud %d, legitimate %d\n\n",
				summary.Counts.Pending, summary.Counts.Fraud, summary.Counts.Legit)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MONTH\tALERTS")
			for _, m := range monthly {
				fmt.Fprintf(w, "%s\t%d\n", m.Label, m.Count)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Alert extract (JSON array)")
	cmd.Flags().StringVar(&reference, "reference", "", "Reference date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		analyst string
		role    string
		email   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an analyst token signed with the configured JWT secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := auth.GenerateToken(analyst, role, email, cfg.JWT.Secret, cfg.JWT.Issuer, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&analyst, "analyst", "", "Analyst ID")
	cmd.Flags().StringVar(&role, "role", "analyst", "Role (viewer, analyst, supervisor)")
	cmd.Flags().StringVar(&email, "email", "", "Analyst email")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("analyst")

	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}

func loadAlerts(path string) ([]entities.Alert, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", err)
	}
	var records []entities.Alert
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse alerts: %w", err)
	}
	return records, nil
}

func referenceTime(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference date %q: %w", s, err)
	}
	return t, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAlerts(w io.Writer, records []entities.Alert) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCUSTOMER\tDATE\tTYPE\tAMOUNT\tSOURCE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\t%s %s\t%s\n",
			r.ID, r.EffectiveStatus(), r.CustomerName, r.Date, r.Time, r.Type,
			r.Amount.StringFixed(2), r.Currency, r.Source)
	}
	_ = tw.Flush()
}
