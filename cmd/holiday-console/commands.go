package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/holiday-console/internal/calendar"
	"github.com/username/holiday-console/internal/export"
	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/internal/holidaysource"
	"github.com/username/holiday-console/internal/selection"
	"github.com/username/holiday-console/internal/server"
	"github.com/username/holiday-console/internal/session"
	"github.com/username/holiday-console/internal/store/sqlite"
	"go.uber.org/zap"
)

func useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <branch|all> [year]",
		Short: "Remember the branch and year for later commands",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			branch := args[0]
			if branch == "all" {
				branch = ""
			}
			if err := a.orch.SelectBranch(cmd.Context(), branch); err != nil {
				return err
			}

			if len(args) == 2 {
				year, err := strconv.Atoi(args[1])
				if err != nil || year < 1 {
					return fmt.Errorf("invalid year %q", args[1])
				}
				if err := a.orch.SelectYear(cmd.Context(), year); err != nil {
					return err
				}
			}

			sess := a.orch.Session()
			if err := a.sessions.Set(sess); err != nil {
				return err
			}

			printSession(sess, a.registry.Len())
			return nil
		},
	}
}

func printSession(sess session.Session, holidays int) {
	if !sess.HasBranch() {
		fmt.Printf("📅 All branches, %d (select a branch to edit holidays)\n", sess.Year)
		return
	}
	fmt.Printf("📅 Branch %s, %d: %d holidays\n", sess.BranchID, sess.Year, holidays)
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [month]",
		Short: "Show the year (or one month) as a calendar grid",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess := a.orch.Session()
			printSession(sess, a.registry.Len())

			months := make([]time.Month, 0, 12)
			if len(args) == 1 {
				m, err := parseMonth(args[0])
				if err != nil {
					return err
				}
				months = append(months, m)
			} else {
				for m := time.January; m <= time.December; m++ {
					months = append(months, m)
				}
			}

			for _, m := range months {
				fmt.Println()
				renderMonth(os.Stdout, calendarMonth(a, sess.Year, m))
			}
			return nil
		},
	}
}

func calendarMonth(a *app, year int, month time.Month) *calendar.MonthInfo {
	return calendar.MonthGrid(year, int(month)-1, a.registry.Lookup)
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the holidays of the selected branch and year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess := a.orch.Session()
			printSession(sess, a.registry.Len())
			fmt.Println()
			renderList(os.Stdout, sess.Year, a.registry.Snapshot())
			return nil
		},
	}
}

func setCmd() *cobra.Command {
	var reasonType string
	var reasonText string

	cmd := &cobra.Command{
		Use:   "set <date>",
		Short: "Mark a date as a holiday, or change its reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.orch.OpenSingleDateEditor(args[0]); err != nil {
				return err
			}

			// Unset flags keep what the date already has
			ed := a.orch.Editor()
			rt := ed.ReasonType
			if reasonType != "" {
				if rt, err = holiday.ParseReasonType(reasonType); err != nil {
					a.orch.Cancel()
					return err
				}
			}
			text := ed.ReasonText
			if reasonText != "" {
				text = reasonText
			}

			return a.orch.ConfirmSave(cmd.Context(), rt, text)
		},
	}

	cmd.Flags().StringVarP(&reasonType, "type", "t", "", "Reason type ("+reasonTypeList()+")")
	cmd.Flags().StringVarP(&reasonText, "reason", "r", "", "Reason text")

	return cmd
}

func reasonTypeList() string {
	names := make([]string, len(holiday.ReasonTypes))
	for i, rt := range holiday.ReasonTypes {
		names[i] = rt.String()
	}
	return strings.Join(names, ", ")
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <date>",
		Short: "Remove the holiday on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.orch.OpenSingleDateEditor(args[0]); err != nil {
				return err
			}
			return a.orch.ConfirmRemove(cmd.Context())
		},
	}
}

func markCmd() *cobra.Command {
	var reasonType string
	var reasonText string

	cmd := &cobra.Command{
		Use:   "mark <weekday>",
		Short: "Mark every occurrence of a weekday in the year as a holiday",
		Example: "  holiday-console mark saturday\n" +
			"  holiday-console mark fri --type SPECIAL --reason \"Half day\"",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekday, err := selection.ParseWeekday(args[0])
			if err != nil {
				return err
			}
			rt, err := holiday.ParseReasonType(reasonType)
			if err != nil {
				return err
			}
			if reasonText == "" {
				reasonText = time.Weekday(weekday).String()
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return outcome(a.orch.MarkWeekday(cmd.Context(), weekday, rt, reasonText))
		},
	}

	cmd.Flags().StringVarP(&reasonType, "type", "t", string(holiday.ReasonWeekend), "Reason type ("+reasonTypeList()+")")
	cmd.Flags().StringVarP(&reasonText, "reason", "r", "", "Reason text (default: the weekday name)")

	return cmd
}

func clearWeekendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-weekends",
		Short: "Remove every holiday that falls on a Saturday or Sunday",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return outcome(a.orch.ClearWeekendHolidays(cmd.Context()))
		},
	}
}

func clearAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-all",
		Short: "Remove every holiday of the year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return outcome(a.orch.ClearAllHolidays(cmd.Context()))
		},
	}
}

func importNationalCmd() *cobra.Command {
	var dryRun bool
	var country string

	cmd := &cobra.Command{
		Use:   "import-national",
		Short: "Import national public holidays for the year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if country == "" {
				country = cfg.National.Country
			}

			nager := holidaysource.NewNagerSource(cfg.National.APIURL, country, cfg.National.GetCacheTTL(), logger)
			var source holidaysource.Source = nager
			if cfg.National.FallbackFile != "" {
				composite := holidaysource.NewCompositeSource(nager, holidaysource.NewFileSource(cfg.National.FallbackFile, logger), logger)
				if err := composite.LoadFallback(); err != nil {
					logger.Warn("Fallback holiday file unavailable", zap.Error(err))
				}
				source = composite
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess := a.orch.Session()
			suggestions, err := source.Holidays(cmd.Context(), sess.Year)
			if err != nil {
				return fmt.Errorf("failed to fetch national holidays: %w", err)
			}

			if dryRun {
				fmt.Printf("📋 %d national holidays for %s in %d (dry run)\n", len(suggestions), country, sess.Year)
				for _, s := range suggestions {
					marker := " "
					if _, ok := a.registry.Lookup(s.Date); ok {
						marker = "="
					}
					fmt.Printf("  %s %s  %-8s %s\n", marker, s.Date, s.ReasonType, s.ReasonText)
				}
				return nil
			}

			_, err = a.orch.ImportHolidays(cmd.Context(), suggestions)
			return outcome(err)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be imported without saving")
	cmd.Flags().StringVar(&country, "country", "", "ISO country code (default from config)")

	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export the year's holidays to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess := a.orch.Session()
			if !sess.HasBranch() {
				return fmt.Errorf("select a branch before exporting")
			}

			records := a.registry.Snapshot()
			if err := export.Save(args[0], export.Workbook{
				BranchID: sess.BranchID,
				Year:     sess.Year,
				Records:  records,
			}); err != nil {
				return err
			}

			fmt.Printf("✅ Exported %d holidays to %s\n", len(records), args[0])
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference Holiday Persistence API backed by SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if dbPath == "" {
				dbPath = cfg.Server.DBPath
			}

			store, err := sqlite.New(dbPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			router := server.NewRouter(server.NewHandler(store, logger), server.Options{
				AllowedOrigins:     cfg.Server.AllowedOrigins,
				AuthToken:          cfg.Server.AuthToken,
				RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
			})

			fmt.Printf("🚀 Serving holidays on %s (db %s)\n", addr, dbPath)
			return server.Run(cmd.Context(), addr, router, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")

	return cmd
}
