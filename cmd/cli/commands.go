package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"flarewise/adapters/excel"
	"flarewise/adapters/memory"
	"flarewise/app"
	"flarewise/domain/core"
	"flarewise/domain/health"
	"flarewise/internal"
	"flarewise/internal/testkit"

	"github.com/spf13/cobra"
)

// source selects where the CLI reads events from
type source struct {
	workbook string
	seed     int64
	days     int
	logLevel string
}

func (s *source) logger() *internal.Logger {
	return internal.NewLogger(internal.ParseLogLevel(s.logLevel))
}

// open loads the workbook, or generates a log ending today
func (s *source) open() (*memory.EventRepository, *health.EventLog, error) {
	if s.workbook != "" {
		repo, err := excel.Open(s.workbook, s.logger())
		if err != nil {
			return nil, nil, err
		}
		return repo.EventRepository, repo.Log(), nil
	}
	kit, err := testkit.NewTestKitWithConfig(s.syntheticConfig())
	if err != nil {
		return nil, nil, err
	}
	return kit.Repo, kit.Log, nil
}

func (s *source) syntheticConfig() testkit.SymptomLogConfig {
	cfg := testkit.DefaultSymptomLogConfig()
	cfg.Seed = s.seed
	cfg.Days = s.days
	cfg.StartDate = time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -s.days)
	return cfg
}

func resolveUser(flag string, log *health.EventLog) (core.UserID, error) {
	if flag != "" {
		return core.UserID(flag), nil
	}
	if len(log.Users) == 0 {
		return "", fmt.Errorf("no users in data set; pass --user")
	}
	return log.Users[0], nil
}

func lastDays(n int) core.DateRange {
	return core.LastNDays(time.Now().UTC(), n)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	src := &source{}
	root := &cobra.Command{
		Use:   "flarewise",
		Short: "Correlation, trend and pattern analysis over a health event log",
		Long: `Runs the flarewise analyses from the command line.

Events come from an .xlsx workbook (--workbook) or, by default, from a
generated demo log that plants dairy→bloating and stress→headache effects.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&src.workbook, "workbook", "", "Read events from this .xlsx workbook")
	root.PersistentFlags().Int64Var(&src.seed, "seed", 42, "Seed for the generated demo log")
	root.PersistentFlags().IntVar(&src.days, "days", 180, "Days of generated demo data")
	root.PersistentFlags().StringVar(&src.logLevel, "log-level", "WARN", "ERROR|WARN|INFO|DEBUG|TRACE")

	root.AddCommand(
		newCorrelateCmd(src),
		newTrendCmd(src),
		newPatternsCmd(src),
		newDoseCmd(src),
		newGenerateCmd(src),
	)
	return root
}

func newCorrelateCmd(src *source) *cobra.Command {
	var user, symptom, food, trigger string
	var rangeDays, minSample int

	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Score foods and triggers against a symptom",
		Long: `Without --food or --trigger every exposure in range is scored and co-eaten
food pairs are checked for synergy.

Example: flarewise correlate --symptom bloating --range-days 90`,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, log, err := src.open()
			if err != nil {
				return err
			}
			userID, err := resolveUser(user, log)
			if err != nil {
				return err
			}
			svc := app.NewCorrelationService(repo, nil, src.logger())
			r := lastDays(rangeDays)

			if food != "" || trigger != "" {
				res, err := svc.ComputeCorrelation(cmd.Context(), app.CorrelationRequest{
					UserID: userID, FoodID: core.FoodID(food), TriggerID: core.TriggerID(trigger),
					SymptomID: core.SymptomID(symptom), Range: r,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			}

			res, err := svc.ComputeWithCombinations(cmd.Context(), userID, core.SymptomID(symptom), r, app.Options{MinSampleSize: minSample})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User id (default: first user in the data set)")
	cmd.Flags().StringVar(&symptom, "symptom", "", "Symptom id or name")
	cmd.Flags().StringVar(&food, "food", "", "Score only this food")
	cmd.Flags().StringVar(&trigger, "trigger", "", "Score only this trigger")
	cmd.Flags().IntVar(&rangeDays, "range-days", 30, "Analyse the last N days")
	cmd.Flags().IntVar(&minSample, "min-sample", 0, "Minimum exposures for a best window (0 keeps the default)")
	_ = cmd.MarkFlagRequired("symptom")
	return cmd
}

func newTrendCmd(src *source) *cobra.Command {
	var user, timeRange string

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Monthly flare counts and trend direction",
		RunE: func(cmd *cobra.Command, args []string) error {
			option, err := app.ParseTimeRange(timeRange)
			if err != nil {
				return err
			}
			repo, log, err := src.open()
			if err != nil {
				return err
			}
			userID, err := resolveUser(user, log)
			if err != nil {
				return err
			}
			res, err := app.NewTrendService(repo, src.logger()).GetMonthlyTrendData(cmd.Context(), userID, option)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User id (default: first user in the data set)")
	cmd.Flags().StringVar(&timeRange, "range", "6m", "3m|6m|1y|all")
	return cmd
}

func newPatternsCmd(src *source) *cobra.Command {
	var user string
	var rangeDays, minFrequency int
	var maxLagHours float64
	var withCorrelations bool

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Detect recurring exposure→symptom pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, log, err := src.open()
			if err != nil {
				return err
			}
			userID, err := resolveUser(user, log)
			if err != nil {
				return err
			}
			found, err := app.NewPatternService(repo, nil, src.logger()).DetectPatterns(cmd.Context(), userID, lastDays(rangeDays), app.PatternOptions{
				MinFrequency:     minFrequency,
				MaxLag:           time.Duration(maxLagHours * float64(time.Hour)),
				WithCorrelations: withCorrelations,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), found)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User id (default: first user in the data set)")
	cmd.Flags().IntVar(&rangeDays, "range-days", 30, "Analyse the last N days")
	cmd.Flags().IntVar(&minFrequency, "min-frequency", 3, "Minimum occurrences for a pattern")
	cmd.Flags().Float64Var(&maxLagHours, "max-lag-hours", 48, "Longest exposure→symptom lag considered")
	cmd.Flags().BoolVar(&withCorrelations, "with-correlations", false, "Use lagged correlation scores as coefficients")
	return cmd
}

func newDoseCmd(src *source) *cobra.Command {
	var user, food, symptom string
	var rangeDays int

	cmd := &cobra.Command{
		Use:     "dose",
		Short:   "Fit symptom severity against portion size for one food",
		Example: "flarewise dose --food dairy --symptom bloating --range-days 180",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, log, err := src.open()
			if err != nil {
				return err
			}
			userID, err := resolveUser(user, log)
			if err != nil {
				return err
			}
			res, err := app.NewDoseResponseService(repo, src.logger()).ComputeForFood(cmd.Context(), userID, core.FoodID(food), core.SymptomID(symptom), lastDays(rangeDays))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User id (default: first user in the data set)")
	cmd.Flags().StringVar(&food, "food", "", "Food id")
	cmd.Flags().StringVar(&symptom, "symptom", "", "Symptom id or name")
	cmd.Flags().IntVar(&rangeDays, "range-days", 90, "Analyse the last N days")
	_ = cmd.MarkFlagRequired("food")
	_ = cmd.MarkFlagRequired("symptom")
	return cmd
}

func newGenerateCmd(src *source) *cobra.Command {
	var out string
	var users int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a generated demo log to an .xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := src.syntheticConfig()
			cfg.UserCount = users
			log, err := testkit.NewSymptomLogGenerator(cfg).Generate()
			if err != nil {
				return err
			}
			if err := excel.WriteWorkbook(out, log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records for %d users to %s\n", log.Len(), len(log.Users), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "flarewise.xlsx", "Output workbook path")
	cmd.Flags().IntVar(&users, "users", 1, "Number of users to generate")
	return cmd
}
