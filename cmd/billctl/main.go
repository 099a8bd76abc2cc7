// Command billctl is the CLI boundary of the billing core: it loads a
// tariff, a customer profile, a holiday list, and a usage series from
// local files, runs compute_bill, and prints the resulting
// BillComputation as JSON.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"

	"github.com/raterudder/billcore/internal/billing"
	"github.com/raterudder/billcore/internal/log"
	"github.com/raterudder/billcore/internal/tariffio"
	"github.com/raterudder/billcore/internal/types"
	"github.com/raterudder/billcore/internal/usageio"
)

func main() {
	tariffPath := lflag.String("tariff", "", "path to a tariff YAML file")
	usagePath := lflag.String("usage", "", "path to a usage CSV file")
	holidaysPath := lflag.String("holidays", "", "optional path to a holidays CSV file (utility,date)")
	timezone := lflag.String("timezone", "UTC", "customer IANA timezone")
	billingDay := lflag.String("billing-day", "31", "last day included in the customer's billing month")
	billingIntervalMinutes := lflag.String("billing-interval-minutes", "60", "customer usage cadence in minutes")
	startDate := lflag.String("start", "", "request period start local date, YYYY-MM-DD")
	endDate := lflag.String("end", "", "request period end local date, YYYY-MM-DD (inclusive)")
	gapStrategy := lflag.String("gap-strategy", string(types.GapStrategyExtrapolateLast), "extrapolate_last or linear_interpolate")

	lflag.Configure()

	var level slog.Level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = log.With(ctx, logger)

	billingDayInt, err := strconv.Atoi(*billingDay)
	if err != nil {
		logger.Error("invalid -billing-day", "error", err)
		os.Exit(2)
	}
	billingIntervalInt, err := strconv.Atoi(*billingIntervalMinutes)
	if err != nil {
		logger.Error("invalid -billing-interval-minutes", "error", err)
		os.Exit(2)
	}

	os.Exit(run(ctx, config{
		tariffPath:             *tariffPath,
		usagePath:              *usagePath,
		holidaysPath:           *holidaysPath,
		timezone:               *timezone,
		billingDay:             billingDayInt,
		billingIntervalMinutes: billingIntervalInt,
		startDate:              *startDate,
		endDate:                *endDate,
		gapStrategy:            types.GapStrategy(*gapStrategy),
	}))
}

type config struct {
	tariffPath             string
	usagePath              string
	holidaysPath           string
	timezone               string
	billingDay             int
	billingIntervalMinutes int
	startDate              string
	endDate                string
	gapStrategy            types.GapStrategy
}

func run(ctx context.Context, cfg config) int {
	logger := log.Ctx(ctx)

	tariff, err := loadTariff(cfg.tariffPath)
	if err != nil {
		logger.Error("failed to load tariff", "error", err)
		return exitCodeForErr(err)
	}

	usage, err := loadUsage(cfg.usagePath, cfg.billingIntervalMinutes)
	if err != nil {
		logger.Error("failed to load usage", "error", err)
		return exitCodeForErr(err)
	}

	holidays, err := loadHolidays(cfg.holidaysPath)
	if err != nil {
		logger.Error("failed to load holidays", "error", err)
		return exitCodeForErr(err)
	}

	start, err := types.ParseCivilDate(cfg.startDate)
	if err != nil {
		logger.Error("invalid -start date", "error", err)
		return 2
	}
	end, err := types.ParseCivilDate(cfg.endDate)
	if err != nil {
		logger.Error("invalid -end date", "error", err)
		return 2
	}

	profile := types.CustomerProfile{
		Timezone:               cfg.timezone,
		BillingIntervalMinutes: cfg.billingIntervalMinutes,
		BillingDay:             cfg.billingDay,
	}

	engine := billing.Engine{}
	result, err := engine.ComputeBill(ctx, billing.Request{
		Profile:     profile,
		Tariff:      tariff,
		Holidays:    holidays,
		Usage:       usage,
		Period:      types.RequestPeriod{StartLocalDate: start, EndLocalDate: end},
		GapStrategy: cfg.gapStrategy,
	})
	if err != nil {
		logger.Error("compute_bill failed", "error", err)
		return exitCodeForErr(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("failed to encode result", "error", err)
		return 4
	}
	return 0
}

func loadTariff(path string) (types.Tariff, error) {
	if path == "" {
		return types.Tariff{}, types.NewError(types.KindInputValidation, "-tariff is required", nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return types.Tariff{}, types.NewError(types.KindInputValidation, fmt.Sprintf("failed to open tariff file %q", path), err)
	}
	defer f.Close()

	tariff, _, err := tariffio.LoadTariffYAML(f)
	return tariff, err
}

func loadUsage(path string, billingIntervalMinutes int) ([]types.UsageInterval, error) {
	if path == "" {
		return nil, types.NewError(types.KindInputValidation, "-usage is required", nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewError(types.KindInputValidation, fmt.Sprintf("failed to open usage file %q", path), err)
	}
	defer f.Close()

	return usageio.LoadUsageCSV(f, billingIntervalMinutes)
}

// loadHolidays reads a flat "utility,date" CSV. This is CLI plumbing,
// not one of the spec's defined wire formats, so it stays inline rather
// than in its own adapter package.
func loadHolidays(path string) ([]types.Holiday, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewError(types.KindInputValidation, fmt.Sprintf("failed to open holidays file %q", path), err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, types.NewError(types.KindInputValidation, "malformed holidays csv", err)
	}

	var out []types.Holiday
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		date, err := types.ParseCivilDate(row[1])
		if err != nil {
			return nil, types.NewError(types.KindInputValidation, fmt.Sprintf("invalid holiday date %q", row[1]), err)
		}
		out = append(out, types.Holiday{Utility: row[0], Date: date})
	}
	return out, nil
}

func exitCodeForErr(err error) int {
	var be *types.Error
	if errors.As(err, &be) {
		switch be.Kind {
		case types.KindInputValidation, types.KindInconsistency, types.KindZoneUnknown:
			return 2
		case types.KindMissingData:
			return 3
		case types.KindCancelled:
			return 130
		default:
			return 4
		}
	}
	return 4
}
