// Package storage implements the persisted-state adapter: holidays,
// tariffs (with their charges and applicability rules),
// customers, and customer usage. None of this lives in the billing
// computation itself; compute_bill receives already-loaded values.
package storage

import (
	"context"
	"time"

	"github.com/raterudder/billcore/internal/types"
)

// CustomerRecord is a customer's persisted profile plus the name of the
// tariff currently assigned to them.
type CustomerRecord struct {
	Name          string
	Profile       types.CustomerProfile
	CurrentTariff string
}

// Store is the persistence boundary compute_bill's callers sit behind.
// PutTariff writes one tariff as a single document; Store has no
// bulk-import operation, so batching and per-tariff failure isolation
// are left to the caller.
type Store interface {
	GetTariff(ctx context.Context, utility, name string) (types.Tariff, error)
	PutTariff(ctx context.Context, tariff types.Tariff) error
	ListTariffs(ctx context.Context, utility string) ([]types.Tariff, error)

	GetCustomer(ctx context.Context, name string) (CustomerRecord, error)
	PutCustomer(ctx context.Context, rec CustomerRecord) error

	GetHolidays(ctx context.Context, utility string) ([]types.Holiday, error)
	PutHoliday(ctx context.Context, h types.Holiday) error

	GetUsage(ctx context.Context, customer string, start, end time.Time) ([]types.UsageInterval, error)
	PutUsage(ctx context.Context, customer string, usage []types.UsageInterval) error

	Close() error
}
