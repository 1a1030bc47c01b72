// Package memory implementa engine.Store em memória, para testes e execução local.
// Cada transação trabalha sobre uma cópia do estado, que só substitui o estado vigente no commit.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/radieske/race-bet-platform/internal/race-service/engine"
	"github.com/radieske/race-bet-platform/internal/race-service/model"
)

type state struct {
	races    map[string]model.Race
	entrants map[string][]model.Entrant // raceID -> inscritos
	wagers   []model.Wager              // ordem de criação
	wallets  map[string]model.Wallet
	ledger   []model.Transaction
	results  map[string][]model.PayoutResult
}

func (s *state) clone() *state {
	c := &state{
		races:    make(map[string]model.Race, len(s.races)),
		entrants: make(map[string][]model.Entrant, len(s.entrants)),
		wagers:   make([]model.Wager, len(s.wagers)),
		wallets:  make(map[string]model.Wallet, len(s.wallets)),
		ledger:   append([]model.Transaction(nil), s.ledger...),
		results:  make(map[string][]model.PayoutResult, len(s.results)),
	}
	for k, v := range s.races {
		c.races[k] = v
	}
	for k, v := range s.entrants {
		c.entrants[k] = append([]model.Entrant(nil), v...)
	}
	copy(c.wagers, s.wagers)
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.results {
		c.results[k] = append([]model.PayoutResult(nil), v...)
	}
	return c
}

// Store implementa engine.Store em memória
type Store struct {
	mu sync.Mutex // transações são serializadas, equivalente a SERIALIZABLE
	st *state

	// FailCommit, quando definido, é chamado antes do commit; erro aborta a transação
	FailCommit func() error
}

func NewStore() *Store {
	return &Store{st: &state{
		races:    map[string]model.Race{},
		entrants: map[string][]model.Entrant{},
		wallets:  map[string]model.Wallet{},
		results:  map[string][]model.PayoutResult{},
	}}
}

var _ engine.Store = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(tx engine.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	if s.FailCommit != nil {
		if err := s.FailCommit(); err != nil {
			return err
		}
	}
	s.st = work
	return nil
}

func (s *Store) Wallet(ctx context.Context, walletID string) (model.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.st.wallets[walletID]
	if !ok {
		return model.Wallet{}, engine.ErrNotFound
	}
	return w, nil
}

func (s *Store) PayoutResults(ctx context.Context, raceID string) ([]model.PayoutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PayoutResult{}, s.st.results[raceID]...), nil
}

// Helpers de preparação e inspeção (fora de transação)

func (s *Store) AddRace(r model.Race) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.races[r.ID] = r
}

func (s *Store) AddEntrant(en model.Entrant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.entrants[en.RaceID] = append(s.st.entrants[en.RaceID], en)
}

func (s *Store) AddWallet(w model.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.wallets[w.ID] = w
}

// AddWager grava uma aposta direto, sem débito; útil para montar pools em teste
func (s *Store) AddWager(w model.Wager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.wagers = append(s.st.wagers, w)
}

func (s *Store) Race(id string) (model.Race, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.races[id]
	return r, ok
}

func (s *Store) RaceWagers(raceID string) []model.Wager {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Wager
	for _, w := range s.st.wagers {
		if w.RaceID == raceID {
			out = append(out, w)
		}
	}
	return out
}

func (s *Store) Transactions(walletID string) []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Transaction
	for _, t := range s.st.ledger {
		if t.WalletID == walletID {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) Entrants(raceID string) []model.Entrant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Entrant(nil), s.st.entrants[raceID]...)
}

type tx struct{ st *state }

func (t *tx) LockRace(ctx context.Context, raceID string, exclusive bool) (model.Race, error) {
	r, ok := t.st.races[raceID]
	if !ok {
		return model.Race{}, engine.ErrNotFound
	}
	return r, nil
}

func (t *tx) UpdateRace(ctx context.Context, race model.Race) error {
	if _, ok := t.st.races[race.ID]; !ok {
		return engine.ErrNotFound
	}
	t.st.races[race.ID] = race
	return nil
}

func (t *tx) SetFinishPosition(ctx context.Context, raceID, entrantID string, position int) error {
	list := t.st.entrants[raceID]
	for i := range list {
		if list[i].ID == entrantID {
			p := position
			list[i].FinishPosition = &p
			return nil
		}
	}
	return engine.ErrNotFound
}

func (t *tx) ClearFinishPositions(ctx context.Context, raceID string) error {
	list := t.st.entrants[raceID]
	for i := range list {
		list[i].FinishPosition = nil
	}
	return nil
}

func (t *tx) Entrants(ctx context.Context, raceID string) ([]model.Entrant, error) {
	out := append([]model.Entrant(nil), t.st.entrants[raceID]...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].FinishPosition, out[j].FinishPosition
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return out, nil
}

func (t *tx) Wagers(ctx context.Context, raceID string) ([]model.Wager, error) {
	var out []model.Wager
	for _, w := range t.st.wagers {
		if w.RaceID == raceID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (t *tx) InsertWager(ctx context.Context, w model.Wager) error {
	t.st.wagers = append(t.st.wagers, w)
	return nil
}

func (t *tx) UpdateWagerResult(ctx context.Context, w model.Wager) error {
	for i := range t.st.wagers {
		if t.st.wagers[i].ID == w.ID {
			t.st.wagers[i].Status = w.Status
			t.st.wagers[i].Payout = w.Payout
			t.st.wagers[i].Rate = w.Rate
			return nil
		}
	}
	return engine.ErrNotFound
}

func (t *tx) ResetWagers(ctx context.Context, raceID string) error {
	for i := range t.st.wagers {
		if t.st.wagers[i].RaceID == raceID {
			t.st.wagers[i].Status = model.WagerPending
			t.st.wagers[i].Payout = 0
			t.st.wagers[i].Rate = model.Wager{}.Rate
		}
	}
	return nil
}

func (t *tx) ReplacePayoutResults(ctx context.Context, raceID string, results []model.PayoutResult) error {
	delete(t.st.results, raceID)
	if len(results) > 0 {
		t.st.results[raceID] = append([]model.PayoutResult(nil), results...)
	}
	return nil
}

func (t *tx) LockWallet(ctx context.Context, walletID string) (model.Wallet, error) {
	w, ok := t.st.wallets[walletID]
	if !ok {
		return model.Wallet{}, engine.ErrNotFound
	}
	return w, nil
}

func (t *tx) SetWalletBalance(ctx context.Context, walletID string, balance int64) error {
	w, ok := t.st.wallets[walletID]
	if !ok {
		return engine.ErrNotFound
	}
	w.Balance = balance
	t.st.wallets[walletID] = w
	return nil
}

func (t *tx) InsertTransaction(ctx context.Context, tr model.Transaction) error {
	t.st.ledger = append(t.st.ledger, tr)
	return nil
}
