package storage

import (
	"context"
	"fmt"

	"github.com/levenlabs/go-lflag"
)

// Configured wires the Store implementation selected by the
// -storage-provider flag. Firestore is the only provider today.
func Configured() Store {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore)")

	var s Store
	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
			s = fs
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return s
}
