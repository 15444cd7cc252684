// Package memory implements the repository interfaces on in-process maps.
// It backs DATABASE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sync"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection. Records are stored by value so callers never
// share memory with the store.
type Store struct {
	mu            sync.RWMutex
	profiles      map[primitive.ObjectID]models.Profile
	rides         map[primitive.ObjectID]models.Ride
	transactions  []models.Transaction
	ratings       []models.Rating
	rideMessages  []models.RideMessage
	conversations map[string]models.Conversation

	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		profiles:      make(map[primitive.ObjectID]models.Profile),
		rides:         make(map[primitive.ObjectID]models.Ride),
		conversations: make(map[string]models.Conversation),
	}
}

type snapshot struct {
	profiles     map[primitive.ObjectID]models.Profile
	rides        map[primitive.ObjectID]models.Ride
	transactions []models.Transaction
	ratings      []models.Rating
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		profiles:     make(map[primitive.ObjectID]models.Profile, len(s.profiles)),
		rides:        make(map[primitive.ObjectID]models.Ride, len(s.rides)),
		transactions: append([]models.Transaction(nil), s.transactions...),
		ratings:      append([]models.Rating(nil), s.ratings...),
	}
	for k, v := range s.profiles {
		snap.profiles[k] = v
	}
	for k, v := range s.rides {
		snap.rides[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles = snap.profiles
	s.rides = snap.rides
	s.transactions = snap.transactions
	s.ratings = snap.ratings
}

type transactor struct {
	store *Store
}

// NewTransactor serialises transactions and rolls the store back when fn
// fails. Writes made outside a transaction while one is running are lost on
// rollback.
func NewTransactor(store *Store) interfaces.Transactor {
	return &transactor{store: store}
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	snap := t.store.snapshot()
	txCtx, hooks := interfaces.WithCommitHooks(ctx)
	if err := fn(txCtx); err != nil {
		t.store.restore(snap)
		return err
	}

	hooks.Run(ctx)
	return nil
}
