package counter

import (
	"context"
	"strconv"

	"hablago/pkg/config"
	"hablago/pkg/store"
)

// StateStore keeps the count in the sqlite persistent_state table.
type StateStore struct {
	st store.StateStore
}

// NewStateStore creates a counter store over a persistent state store.
func NewStateStore(st store.StateStore) *StateStore {
	return &StateStore{st: st}
}

func (s *StateStore) Load(ctx context.Context) (int64, error) {
	val, ok := s.st.GetState(ctx, config.KeyVisitorCount)
	if !ok {
		return 0, nil
	}
	return ParseCount(val), nil
}

func (s *StateStore) Save(ctx context.Context, n int64) error {
	return s.st.SetState(ctx, config.KeyVisitorCount, strconv.FormatInt(n, 10))
}
