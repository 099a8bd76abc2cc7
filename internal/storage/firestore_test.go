package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/billcore/internal/types"
)

func newTestFirestoreStore(t *testing.T) *FirestoreStore {
	t.Helper()
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")

	f := &FirestoreStore{
		projectID: "test-project-id",
		database:  fmt.Sprintf("test-db-%d", time.Now().UnixNano()),
	}
	require.NoError(t, f.Init(context.Background()))
	t.Cleanup(func() { f.Close() })
	return f
}

func TestFirestoreStoreTariffs(t *testing.T) {
	f := newTestFirestoreStore(t)
	ctx := context.Background()

	tariff := types.Tariff{
		Utility: "demo-utility",
		Name:    "residential-flat",
		EnergyCharges: []types.EnergyCharge{
			{ID: "e1", Name: "flat", RateUSDPerKWH: decimal.NewFromFloat(0.12)},
		},
	}
	require.NoError(t, f.PutTariff(ctx, tariff))

	got, err := f.GetTariff(ctx, tariff.Utility, tariff.Name)
	require.NoError(t, err)
	assert.Equal(t, tariff.Utility, got.Utility)
	assert.Equal(t, tariff.Name, got.Name)
	require.Len(t, got.EnergyCharges, 1)
	assert.True(t, got.EnergyCharges[0].RateUSDPerKWH.Equal(tariff.EnergyCharges[0].RateUSDPerKWH))

	t.Run("ListTariffs finds it by utility", func(t *testing.T) {
		list, err := f.ListTariffs(ctx, tariff.Utility)
		require.NoError(t, err)
		found := false
		for _, tf := range list {
			if tf.Name == tariff.Name {
				found = true
			}
		}
		assert.True(t, found, "expected to find %s in ListTariffs", tariff.Name)
	})

	t.Run("GetTariff on an unknown tariff is an input-validation error", func(t *testing.T) {
		_, err := f.GetTariff(ctx, tariff.Utility, "does-not-exist")
		require.Error(t, err)
		var be *types.Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, types.KindInputValidation, be.Kind)
	})
}

func TestFirestoreStoreCustomers(t *testing.T) {
	f := newTestFirestoreStore(t)
	ctx := context.Background()

	rec := CustomerRecord{
		Name:          "jane-doe",
		Profile:       types.CustomerProfile{Timezone: "America/Los_Angeles", BillingIntervalMinutes: 60, BillingDay: 15},
		CurrentTariff: "residential-flat",
	}
	require.NoError(t, f.PutCustomer(ctx, rec))

	got, err := f.GetCustomer(ctx, rec.Name)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestFirestoreStoreHolidays(t *testing.T) {
	f := newTestFirestoreStore(t)
	ctx := context.Background()

	h := types.Holiday{Utility: "demo-utility", Date: types.CivilDate{Year: 2024, Month: 7, Day: 4}}
	require.NoError(t, f.PutHoliday(ctx, h))

	holidays, err := f.GetHolidays(ctx, h.Utility)
	require.NoError(t, err)
	found := false
	for _, got := range holidays {
		if got.Date == h.Date {
			found = true
		}
	}
	assert.True(t, found, "expected to find the inserted holiday")
}

func TestFirestoreStoreUsage(t *testing.T) {
	f := newTestFirestoreStore(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	usage := []types.UsageInterval{
		{IntervalStartUTC: base, IntervalEndUTC: base.Add(time.Hour), EnergyKWH: decimal.NewFromInt(1)},
		{IntervalStartUTC: base.Add(time.Hour), IntervalEndUTC: base.Add(2 * time.Hour), EnergyKWH: decimal.NewFromInt(2)},
		{IntervalStartUTC: base.Add(24 * time.Hour), IntervalEndUTC: base.Add(25 * time.Hour), EnergyKWH: decimal.NewFromInt(3)},
	}
	require.NoError(t, f.PutUsage(ctx, "jane-doe", usage))

	got, err := f.GetUsage(ctx, "jane-doe", base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].EnergyKWH.Equal(decimal.NewFromInt(1)))
	assert.True(t, got[1].EnergyKWH.Equal(decimal.NewFromInt(2)))
}
