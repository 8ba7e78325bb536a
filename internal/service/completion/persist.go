package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/kv"
)

// StorageKey is the versioned key the state lives under, below a profile
// namespace.
const StorageKey = "tour.completion.v3"

// Load reads the state stored at key. It always returns a usable store: a
// missing, unreadable or unrecognized payload yields an empty one, and the
// read error, if any, is returned for logging.
func Load(ctx context.Context, store kv.Store, key string, active tour.Weekday) (*Store, error) {
	data, err := store.Load(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return emptyStore(active), nil
	}
	if err != nil {
		return emptyStore(active), fmt.Errorf("failed to load completion state: %w", err)
	}

	s, format := Decode(data, active)
	switch format {
	case FormatLegacyNested:
		slog.Warn("Discarded legacy completion state", "key", key)
	case FormatFlatArray, FormatWeekdayMap:
		slog.Info("Migrated completion state", "key", key, "format", string(format))
	case FormatUnknown:
		slog.Warn("Unrecognized completion state, starting empty", "key", key)
	}
	return s, nil
}

// Save writes the canonical encoding of s to key.
func Save(ctx context.Context, store kv.Store, key string, s *Store) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save completion state: %w", err)
	}
	return nil
}
