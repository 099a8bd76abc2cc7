package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/raterudder/billcore/internal/log"
	"github.com/raterudder/billcore/internal/types"
)

// FirestoreStore implements Store using Google Cloud Firestore. Every
// entity is persisted as a JSON blob under a "json" field, the same
// convention the rest of the pack uses for portability across schema
// changes.
type FirestoreStore struct {
	client    *firestore.Client
	projectID string
	database  string
}

func configuredFirestore() *FirestoreStore {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreStore{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Init opens the Firestore client. Must be called before any other method.
func (f *FirestoreStore) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

func (f *FirestoreStore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func tariffDocID(utility, name string) string {
	return fmt.Sprintf("%s__%s", utility, name)
}

func (f *FirestoreStore) GetTariff(ctx context.Context, utility, name string) (types.Tariff, error) {
	doc, err := f.client.Collection("tariffs").Doc(tariffDocID(utility, name)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Tariff{}, types.NewError(types.KindInputValidation, fmt.Sprintf("tariff %s/%s not found", utility, name), err)
		}
		return types.Tariff{}, fmt.Errorf("failed to get tariff %s/%s: %w", utility, name, err)
	}
	return decodeJSONField[types.Tariff](doc, "json")
}

func (f *FirestoreStore) PutTariff(ctx context.Context, tariff types.Tariff) error {
	if err := types.ValidateTariff(tariff); err != nil {
		return err
	}
	jsonBytes, err := json.Marshal(tariff)
	if err != nil {
		return fmt.Errorf("failed to marshal tariff: %w", err)
	}
	_, err = f.client.Collection("tariffs").Doc(tariffDocID(tariff.Utility, tariff.Name)).Set(ctx, map[string]any{
		"utility": tariff.Utility,
		"name":    tariff.Name,
		"json":    string(jsonBytes),
	})
	if err != nil {
		return fmt.Errorf("failed to put tariff %s/%s: %w", tariff.Utility, tariff.Name, err)
	}
	return nil
}

func (f *FirestoreStore) ListTariffs(ctx context.Context, utility string) ([]types.Tariff, error) {
	iter := f.client.Collection("tariffs").Where("utility", "==", utility).Documents(ctx)
	defer iter.Stop()

	var out []types.Tariff
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating tariffs: %w", err)
		}
		t, err := decodeJSONField[types.Tariff](doc, "json")
		if err != nil {
			log.Ctx(ctx).Warn("skipping malformed tariff doc", "docID", doc.Ref.ID, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *FirestoreStore) GetCustomer(ctx context.Context, name string) (CustomerRecord, error) {
	doc, err := f.client.Collection("customers").Doc(name).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return CustomerRecord{}, types.NewError(types.KindInputValidation, fmt.Sprintf("customer %q not found", name), err)
		}
		return CustomerRecord{}, fmt.Errorf("failed to get customer %q: %w", name, err)
	}
	return decodeJSONField[CustomerRecord](doc, "json")
}

func (f *FirestoreStore) PutCustomer(ctx context.Context, rec CustomerRecord) error {
	if err := types.ValidateCustomerProfile(rec.Profile); err != nil {
		return err
	}
	jsonBytes, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal customer: %w", err)
	}
	_, err = f.client.Collection("customers").Doc(rec.Name).Set(ctx, map[string]any{"json": string(jsonBytes)})
	if err != nil {
		return fmt.Errorf("failed to put customer %q: %w", rec.Name, err)
	}
	return nil
}

func (f *FirestoreStore) GetHolidays(ctx context.Context, utility string) ([]types.Holiday, error) {
	iter := f.client.Collection("holidays").Where("utility", "==", utility).Documents(ctx)
	defer iter.Stop()

	var out []types.Holiday
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating holidays: %w", err)
		}
		h, err := decodeJSONField[types.Holiday](doc, "json")
		if err != nil {
			log.Ctx(ctx).Warn("skipping malformed holiday doc", "docID", doc.Ref.ID, "error", err)
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (f *FirestoreStore) PutHoliday(ctx context.Context, h types.Holiday) error {
	jsonBytes, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal holiday: %w", err)
	}
	docID := fmt.Sprintf("%s__%s", h.Utility, h.Date.String())
	_, err = f.client.Collection("holidays").Doc(docID).Set(ctx, map[string]any{
		"utility": h.Utility,
		"json":    string(jsonBytes),
	})
	if err != nil {
		return fmt.Errorf("failed to put holiday %s: %w", docID, err)
	}
	return nil
}

func (f *FirestoreStore) usageCollection(customer string) *firestore.CollectionRef {
	return f.client.Collection("customer_usage").Doc(customer).Collection("intervals")
}

// GetUsage retrieves usage intervals in [start, end) for a customer,
// unique per (customer, interval_start_utc) via the document ID.
func (f *FirestoreStore) GetUsage(ctx context.Context, customer string, start, end time.Time) ([]types.UsageInterval, error) {
	coll := f.usageCollection(customer)
	startDocID := start.UTC().Format(time.RFC3339)
	endDocID := end.UTC().Format(time.RFC3339)

	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(startDocID)).
		Where(firestore.DocumentID, "<", coll.Doc(endDocID)).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var out []types.UsageInterval
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating usage for %q: %w", customer, err)
		}
		u, err := decodeJSONField[types.UsageInterval](doc, "json")
		if err != nil {
			log.Ctx(ctx).Warn("skipping malformed usage doc", "customer", customer, "docID", doc.Ref.ID, "error", err)
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (f *FirestoreStore) PutUsage(ctx context.Context, customer string, usage []types.UsageInterval) error {
	coll := f.usageCollection(customer)
	for _, u := range usage {
		jsonBytes, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("failed to marshal usage interval at %s: %w", u.IntervalStartUTC, err)
		}
		docID := u.IntervalStartUTC.UTC().Format(time.RFC3339)
		_, err = coll.Doc(docID).Set(ctx, map[string]any{
			"timestamp": u.IntervalStartUTC,
			"json":      string(jsonBytes),
		})
		if err != nil {
			return fmt.Errorf("failed to put usage interval %s for %q: %w", docID, customer, err)
		}
	}
	return nil
}

func decodeJSONField[T any](doc *firestore.DocumentSnapshot, field string) (T, error) {
	var zero T
	val, err := doc.DataAt(field)
	if err != nil {
		return zero, fmt.Errorf("document %s missing %q field: %w", doc.Ref.ID, field, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return zero, fmt.Errorf("document %s field %q is not a string", doc.Ref.ID, field)
	}
	var out T
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		return zero, fmt.Errorf("failed to unmarshal document %s: %w", doc.Ref.ID, err)
	}
	return out, nil
}
