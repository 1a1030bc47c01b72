package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-service/engine"
	"github.com/radieske/race-bet-platform/internal/race-service/model"
	"github.com/radieske/race-bet-platform/internal/race-service/parimutuel"
	"github.com/radieske/race-bet-platform/internal/race-service/repo/memory"
	"github.com/radieske/race-bet-platform/internal/shared/auth"
	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

var clock = time.Date(2026, 5, 3, 14, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RaceEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.RaceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) kinds() []events.RaceEventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.RaceEventKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

type fixture struct {
	store *memory.Store
	publ  *recordingPublisher
	eng   *engine.Engine
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), publ: &recordingPublisher{}, now: clock}

	seq := 0
	f.eng = engine.New(zap.NewNop(), f.store, f.publ, engine.Options{
		Now: func() time.Time { return f.now },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		},
	})

	closing := clock.Add(time.Hour)
	f.store.AddRace(model.Race{ID: "r1", Name: "Derby", StartsAt: clock.Add(2 * time.Hour), ClosingAt: &closing, Status: model.RaceScheduled})
	// números 1..6, grupos 1,1,2,2,3,3
	for n := 1; n <= 6; n++ {
		f.store.AddEntrant(model.Entrant{ID: fmt.Sprintf("e%d", n), RaceID: "r1", Number: n, Bracket: (n + 1) / 2})
	}
	for _, u := range []string{"alice", "bob", "carol"} {
		f.store.AddWallet(model.Wallet{ID: "w-" + u, UserID: u, Balance: 1000})
	}
	return f
}

func admin() context.Context {
	return auth.WithCaller(context.Background(), auth.Caller{UserID: "root", Role: auth.RoleAdmin})
}

func as(user string) context.Context {
	return auth.WithCaller(context.Background(), auth.Caller{UserID: user, Role: auth.RoleUser})
}

func (f *fixture) place(t *testing.T, user, betType string, amount int64, sel ...int) model.Wager {
	t.Helper()
	w, err := f.eng.PlaceWager(as(user), engine.PlaceWagerRequest{
		RaceID: "r1", WalletID: "w-" + user, BetType: betType, Selections: sel, Amount: amount,
	})
	require.NoError(t, err)
	return w
}

func (f *fixture) balance(t *testing.T, walletID string) int64 {
	t.Helper()
	w, err := f.store.Wallet(context.Background(), walletID)
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) wager(t *testing.T, id string) model.Wager {
	t.Helper()
	for _, w := range f.store.RaceWagers("r1") {
		if w.ID == id {
			return w
		}
	}
	t.Fatalf("wager %s not found", id)
	return model.Wager{}
}

// chegada 1-2-3-4-5-6
func podium() []engine.FinishResult {
	out := make([]engine.FinishResult, 0, 6)
	for n := 1; n <= 6; n++ {
		out = append(out, engine.FinishResult{EntrantID: fmt.Sprintf("e%d", n), FinishPosition: n})
	}
	return out
}

func rate(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEndToEndSingleWinner(t *testing.T) {
	f := newFixture(t)

	mine := f.place(t, "alice", parimutuel.Win, 100, 1)
	f.place(t, "bob", parimutuel.Win, 100, 1)
	f.place(t, "carol", parimutuel.Win, 800, 2)
	assert.Equal(t, int64(900), f.balance(t, "w-alice"))

	require.NoError(t, f.eng.CloseRace(admin(), "r1"))

	s, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{Mode: engine.TotalDistribution})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Hits)
	assert.Equal(t, 1, s.Lost)

	got := f.wager(t, mine.ID)
	assert.Equal(t, model.WagerHit, got.Status)
	assert.Equal(t, int64(500), got.Payout)
	assert.True(t, rate("5.0").Equal(got.Rate))

	require.Len(t, s.Results, 1)
	assert.Equal(t, parimutuel.Win, s.Results[0].BetType)
	assert.Equal(t, []model.Combination{{Numbers: []int{1}, Payout: 500}}, s.Results[0].Combinations)

	d, err := f.eng.Disburse(admin(), "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), d.Credited)
	assert.Equal(t, 2, d.Payouts)
	assert.Equal(t, int64(1400), f.balance(t, "w-alice"))

	ledger := f.store.Transactions("w-alice")
	require.Len(t, ledger, 2)
	assert.Equal(t, model.TxBet, ledger[0].Type)
	assert.Equal(t, int64(-100), ledger[0].Amount)
	assert.Equal(t, model.TxPayout, ledger[1].Type)
	assert.Equal(t, int64(500), ledger[1].Amount)
	assert.Equal(t, mine.ID, ledger[1].ReferenceID)

	race, _ := f.store.Race("r1")
	assert.Equal(t, model.RaceFinalized, race.Status)
	require.NotNil(t, race.FinalizedAt)

	assert.Equal(t, []events.RaceEventKind{events.RaceClosed, events.RaceClosed, events.RaceBroadcast}, f.publ.kinds())
}

func TestSettleWithManualTakeout(t *testing.T) {
	f := newFixture(t)
	w := f.place(t, "alice", parimutuel.Win, 200, 1)
	f.place(t, "bob", parimutuel.Win, 800, 2)

	_, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{Mode: engine.Manual, TakeoutRate: rate("0.2")})
	require.NoError(t, err)

	got := f.wager(t, w.ID)
	assert.True(t, rate("4.0").Equal(got.Rate))
	assert.Equal(t, int64(800), got.Payout)
}

func TestSettleSplitsPlacePool(t *testing.T) {
	f := newFixture(t)
	a := f.place(t, "alice", parimutuel.Place, 100, 1)
	b := f.place(t, "bob", parimutuel.Place, 300, 2)
	c := f.place(t, "carol", parimutuel.Place, 600, 5)

	s, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	require.NoError(t, err)

	assert.True(t, rate("4.0").Equal(f.wager(t, a.ID).Rate))
	assert.Equal(t, int64(400), f.wager(t, a.ID).Payout)
	assert.True(t, rate("2.0").Equal(f.wager(t, b.ID).Rate))
	assert.Equal(t, int64(600), f.wager(t, b.ID).Payout)
	assert.Equal(t, model.WagerLost, f.wager(t, c.ID).Status)

	require.Len(t, s.Results, 1)
	assert.Equal(t, []model.Combination{
		{Numbers: []int{1}, Payout: 400},
		{Numbers: []int{2}, Payout: 200},
	}, s.Results[0].Combinations)
}

func TestSettleGroupsReversedQuinellaSelections(t *testing.T) {
	f := newFixture(t)
	a := f.place(t, "alice", parimutuel.Quinella, 100, 1, 2)
	b := f.place(t, "bob", parimutuel.Quinella, 100, 2, 1)
	f.place(t, "carol", parimutuel.Quinella, 200, 3, 4)

	s, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	require.NoError(t, err)

	// mesma combinação: uma seleção vencedora com 200 apostados, pool 400
	assert.True(t, rate("2.0").Equal(f.wager(t, a.ID).Rate))
	assert.True(t, rate("2.0").Equal(f.wager(t, b.ID).Rate))
	require.Len(t, s.Results, 1)
	assert.Equal(t, []model.Combination{{Numbers: []int{1, 2}, Payout: 200}}, s.Results[0].Combinations)
}

func TestSettleRefundsBetTypeWithoutWinner(t *testing.T) {
	f := newFixture(t)
	w1 := f.place(t, "alice", parimutuel.Trifecta, 100, 6, 5, 4)
	w2 := f.place(t, "bob", parimutuel.Trifecta, 15, 4, 5, 6)
	win := f.place(t, "carol", parimutuel.Win, 100, 1)

	s, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Refunded)

	assert.Equal(t, model.WagerRefunded, f.wager(t, w1.ID).Status)
	assert.Equal(t, int64(70), f.wager(t, w1.ID).Payout)
	assert.Equal(t, int64(10), f.wager(t, w2.ID).Payout)
	assert.Equal(t, model.WagerHit, f.wager(t, win.ID).Status)

	results, err := f.eng.PayoutResults(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, parimutuel.Trifecta, results[0].BetType)
	assert.Equal(t, []model.Combination{{Numbers: []int{}, Payout: 70}}, results[0].Combinations)
	assert.Equal(t, parimutuel.Win, results[1].BetType)
}

func TestSettleIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.place(t, "alice", parimutuel.Win, 100, 1)
	f.place(t, "bob", parimutuel.Wide, 300, 1, 3)
	f.place(t, "carol", parimutuel.Wide, 200, 2, 3)
	f.place(t, "carol", parimutuel.Exacta, 50, 2, 1)

	_, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	require.NoError(t, err)
	firstWagers := f.store.RaceWagers("r1")
	firstResults, _ := f.eng.PayoutResults(context.Background(), "r1")

	_, err = f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	require.NoError(t, err)
	secondResults, _ := f.eng.PayoutResults(context.Background(), "r1")

	assert.Equal(t, firstWagers, f.store.RaceWagers("r1"))
	assert.Equal(t, firstResults, secondResults)
	assert.Len(t, secondResults, 3)
}

func TestDisburseExactlyOnce(t *testing.T) {
	f := newFixture(t)
	f.place(t, "alice", parimutuel.Win, 100, 1)
	f.place(t, "bob", parimutuel.Win, 100, 2)

	_, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	require.NoError(t, err)
	_, err = f.eng.Disburse(admin(), "r1")
	require.NoError(t, err)

	alice, bob := f.balance(t, "w-alice"), f.balance(t, "w-bob")

	_, err = f.eng.Disburse(admin(), "r1")
	assert.ErrorIs(t, err, engine.ErrAlreadyFinalized)
	assert.ErrorIs(t, err, engine.ErrStateConflict)
	assert.Equal(t, alice, f.balance(t, "w-alice"))
	assert.Equal(t, bob, f.balance(t, "w-bob"))
	assert.Len(t, f.store.Transactions("w-alice"), 2)
}

func TestDisburseRequiresSettlement(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.eng.CloseRace(admin(), "r1"))

	_, err := f.eng.Disburse(admin(), "r1")
	assert.ErrorIs(t, err, engine.ErrNotSettled)
}

func TestDisburseRollsBackWhenWalletDisappears(t *testing.T) {
	f := newFixture(t)
	f.place(t, "alice", parimutuel.Place, 100, 1)
	f.store.AddWager(model.Wager{
		ID: "ghost", RaceID: "r1", WalletID: "w-gone", UserID: "gone",
		BetType: parimutuel.Place, Selections: []int{2}, Amount: 100, Status: model.WagerPending,
	})

	_, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	require.NoError(t, err)

	_, err = f.eng.Disburse(admin(), "r1")
	assert.ErrorIs(t, err, engine.ErrConsistency)

	assert.Equal(t, int64(900), f.balance(t, "w-alice"))
	assert.Len(t, f.store.Transactions("w-alice"), 1)
	race, _ := f.store.Race("r1")
	assert.Equal(t, model.RaceClosed, race.Status)
	assert.Nil(t, race.FinalizedAt)
}

func TestResetAllowsResettlement(t *testing.T) {
	f := newFixture(t)
	a := f.place(t, "alice", parimutuel.Win, 100, 1)
	b := f.place(t, "bob", parimutuel.Win, 100, 2)

	_, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.WagerHit, f.wager(t, a.ID).Status)

	require.NoError(t, f.eng.Reset(admin(), "r1"))
	race, _ := f.store.Race("r1")
	assert.Equal(t, model.PhaseAwaitingResult, race.Phase())
	assert.Equal(t, model.WagerPending, f.wager(t, a.ID).Status)
	for _, en := range f.store.Entrants("r1") {
		assert.Nil(t, en.FinishPosition)
	}
	results, _ := f.eng.PayoutResults(context.Background(), "r1")
	assert.Empty(t, results)

	// resultado corrigido: 2 venceu
	_, err = f.eng.Settle(admin(), "r1", []engine.FinishResult{
		{EntrantID: "e2", FinishPosition: 1},
		{EntrantID: "e1", FinishPosition: 2},
	}, engine.PayoutOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.WagerLost, f.wager(t, a.ID).Status)
	assert.Equal(t, model.WagerHit, f.wager(t, b.ID).Status)
	assert.Equal(t, int64(200), f.wager(t, b.ID).Payout)

	_, err = f.eng.Disburse(admin(), "r1")
	require.NoError(t, err)

	assert.ErrorIs(t, f.eng.Reset(admin(), "r1"), engine.ErrResetNotAllowed)
	_, err = f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	assert.ErrorIs(t, err, engine.ErrRaceNotSettleable)
}

func TestSettleWithoutResults(t *testing.T) {
	f := newFixture(t)
	f.place(t, "alice", parimutuel.Win, 100, 1)

	_, err := f.eng.Settle(admin(), "r1", nil, engine.PayoutOptions{})
	assert.ErrorIs(t, err, engine.ErrNoResults)
	assert.ErrorIs(t, err, engine.ErrValidation)

	race, _ := f.store.Race("r1")
	assert.Equal(t, model.RaceScheduled, race.Status)
	assert.False(t, race.Settled)
	assert.Empty(t, f.publ.kinds())
}

func TestSettleRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.eng.Settle(admin(), "r1", []engine.FinishResult{{EntrantID: "nope", FinishPosition: 1}}, engine.PayoutOptions{})
	assert.ErrorIs(t, err, engine.ErrUnknownEntrant)

	_, err = f.eng.Settle(admin(), "r1", []engine.FinishResult{{EntrantID: "e1", FinishPosition: 0}}, engine.PayoutOptions{})
	assert.ErrorIs(t, err, engine.ErrInvalidPosition)

	_, err = f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{Mode: engine.Manual, TakeoutRate: rate("1")})
	assert.ErrorIs(t, err, engine.ErrInvalidTakeout)

	_, err = f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{Mode: "LOTTERY"})
	assert.ErrorIs(t, err, engine.ErrInvalidMode)

	_, err = f.eng.Settle(admin(), "missing", podium(), engine.PayoutOptions{})
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestAdminOperationsRequireCapability(t *testing.T) {
	f := newFixture(t)

	_, err := f.eng.Settle(as("alice"), "r1", podium(), engine.PayoutOptions{})
	assert.ErrorIs(t, err, engine.ErrUnauthorized)
	_, err = f.eng.Disburse(as("alice"), "r1")
	assert.ErrorIs(t, err, engine.ErrUnauthorized)
	assert.ErrorIs(t, f.eng.Reset(context.Background(), "r1"), engine.ErrNoCaller)
	assert.ErrorIs(t, f.eng.CloseRace(as("bob"), "r1"), engine.ErrNotAdmin)
	_, err = f.eng.Deposit(as("bob"), "w-bob", 100)
	assert.ErrorIs(t, err, engine.ErrNotAdmin)
}

func TestPlaceWagerRejections(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		ctx  context.Context
		req  engine.PlaceWagerRequest
		want error
	}{
		{"insufficient balance", as("alice"), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-alice", BetType: parimutuel.Win, Selections: []int{1}, Amount: 1001}, engine.ErrInsufficientBalance},
		{"foreign wallet", as("alice"), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-bob", BetType: parimutuel.Win, Selections: []int{1}, Amount: 10}, engine.ErrWalletNotOwned},
		{"zero stake", as("alice"), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-alice", BetType: parimutuel.Win, Selections: []int{1}, Amount: 0}, engine.ErrInvalidAmount},
		{"unknown bet type", as("alice"), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-alice", BetType: "pick6", Selections: []int{1}, Amount: 10}, engine.ErrUnknownBetType},
		{"wrong selection count", as("alice"), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-alice", BetType: parimutuel.Trio, Selections: []int{1, 2}, Amount: 10}, engine.ErrValidation},
		{"unknown horse", as("alice"), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-alice", BetType: parimutuel.Win, Selections: []int{9}, Amount: 10}, engine.ErrInvalidSelection},
		{"unknown bracket", as("alice"), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-alice", BetType: parimutuel.BracketQuinella, Selections: []int{1, 4}, Amount: 10}, engine.ErrInvalidSelection},
		{"anonymous", context.Background(), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-alice", BetType: parimutuel.Win, Selections: []int{1}, Amount: 10}, engine.ErrNoCaller},
		{"missing wallet", as("alice"), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-none", BetType: parimutuel.Win, Selections: []int{1}, Amount: 10}, engine.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.eng.PlaceWager(tc.ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Equal(t, int64(1000), f.balance(t, "w-alice"))
	assert.Empty(t, f.store.Transactions("w-alice"))
	assert.Empty(t, f.store.RaceWagers("r1"))
}

func TestPlaceWagerAfterClosing(t *testing.T) {
	f := newFixture(t)
	f.now = clock.Add(time.Hour)

	_, err := f.eng.PlaceWager(as("alice"), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-alice", BetType: parimutuel.Win, Selections: []int{1}, Amount: 10})
	assert.ErrorIs(t, err, engine.ErrRaceNotAccepting)

	f.now = clock
	require.NoError(t, f.eng.CloseRace(admin(), "r1"))
	_, err = f.eng.PlaceWager(as("alice"), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-alice", BetType: parimutuel.Win, Selections: []int{1}, Amount: 10})
	assert.ErrorIs(t, err, engine.ErrRaceNotAccepting)

	assert.Equal(t, int64(1000), f.balance(t, "w-alice"))
	assert.Empty(t, f.store.Transactions("w-alice"))
}

func TestPlaceWagerLeavesNoDebitWhenCommitFails(t *testing.T) {
	f := newFixture(t)
	f.store.FailCommit = func() error { return errors.New("connection reset") }

	_, err := f.eng.PlaceWager(as("alice"), engine.PlaceWagerRequest{RaceID: "r1", WalletID: "w-alice", BetType: parimutuel.Win, Selections: []int{1}, Amount: 10})
	require.Error(t, err)

	f.store.FailCommit = nil
	assert.Equal(t, int64(1000), f.balance(t, "w-alice"))
	assert.Empty(t, f.store.Transactions("w-alice"))
}

func TestLedgerMatchesBalances(t *testing.T) {
	f := newFixture(t)
	f.place(t, "alice", parimutuel.Win, 100, 1)
	f.place(t, "alice", parimutuel.Place, 250, 3)
	f.place(t, "bob", parimutuel.Place, 120, 4)
	f.place(t, "carol", parimutuel.Trio, 80, 1, 2, 3)

	_, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	require.NoError(t, err)
	_, err = f.eng.Disburse(admin(), "r1")
	require.NoError(t, err)

	for _, id := range []string{"w-alice", "w-bob", "w-carol"} {
		sum := int64(1000)
		for _, tr := range f.store.Transactions(id) {
			sum += tr.Amount
		}
		assert.Equal(t, sum, f.balance(t, id), id)
	}
}

func TestCloseRace(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.eng.CloseRace(admin(), "r1"))
	require.NoError(t, f.eng.CloseRace(admin(), "r1"))
	assert.Equal(t, []events.RaceEventKind{events.RaceClosed}, f.publ.kinds())

	f.store.AddRace(model.Race{ID: "r2", Status: model.RaceCancelled})
	assert.ErrorIs(t, f.eng.CloseRace(admin(), "r2"), engine.ErrRaceNotClosable)
}

func TestPublishFailureDoesNotFailSettlement(t *testing.T) {
	f := newFixture(t)
	f.publ.err = errors.New("broker down")
	var failures []string
	f.eng.OnError = func(op string) { failures = append(failures, op) }

	f.place(t, "alice", parimutuel.Win, 100, 1)
	_, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"publish"}, failures)
}

func TestWalletAndDeposit(t *testing.T) {
	f := newFixture(t)

	w, err := f.eng.Deposit(admin(), "w-bob", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), w.Balance)

	got, err := f.eng.Wallet(as("bob"), "w-bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got.Balance)

	_, err = f.eng.Wallet(as("alice"), "w-bob")
	assert.ErrorIs(t, err, engine.ErrWalletNotOwned)

	_, err = f.eng.Deposit(admin(), "w-bob", -5)
	assert.ErrorIs(t, err, engine.ErrInvalidAmount)

	ledger := f.store.Transactions("w-bob")
	require.Len(t, ledger, 1)
	assert.Equal(t, model.TxDeposit, ledger[0].Type)
}

func TestSettleHonoursZeroConsolationRate(t *testing.T) {
	f := newFixture(t)
	zero := decimal.Zero
	f.eng = engine.New(zap.NewNop(), f.store, f.publ, engine.Options{ConsolationRate: &zero, Now: func() time.Time { return f.now }})

	w := f.place(t, "alice", parimutuel.Trifecta, 100, 6, 5, 4)

	s, err := f.eng.Settle(admin(), "r1", podium(), engine.PayoutOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Refunded)

	got := f.wager(t, w.ID)
	assert.Equal(t, model.WagerRefunded, got.Status)
	assert.Equal(t, int64(0), got.Payout)
	assert.True(t, got.Rate.IsZero())
	assert.Equal(t, []model.Combination{{Numbers: []int{}, Payout: 0}}, s.Results[0].Combinations)

	d, err := f.eng.Disburse(admin(), "r1")
	require.NoError(t, err)
	assert.Zero(t, d.Credited)
	assert.Equal(t, int64(900), f.balance(t, "w-alice"))
}

func TestParseConsolationRate(t *testing.T) {
	for _, ok := range []string{"0", "0.7", "1"} {
		d, err := engine.ParseConsolationRate(ok)
		require.NoError(t, err, ok)
		assert.True(t, rate(ok).Equal(d))
	}
	for _, bad := range []string{"-0.1", "1.5", "abc", ""} {
		_, err := engine.ParseConsolationRate(bad)
		assert.ErrorIs(t, err, engine.ErrValidation, bad)
	}
}
