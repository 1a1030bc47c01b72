// Package engine orquestra apuração, pagamento e registro de apostas das corridas.
// Cada operação roda em uma única transação do Store; eventos são publicados só depois do commit.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-service/model"
	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

// Store abre transações e expõe leituras simples fora delas
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Wallet(ctx context.Context, walletID string) (model.Wallet, error)
	PayoutResults(ctx context.Context, raceID string) ([]model.PayoutResult, error)
}

// Tx são as operações disponíveis dentro de uma unidade atômica.
// Implementações devolvem ErrNotFound quando a linha não existe.
type Tx interface {
	// LockRace trava a linha da corrida: FOR UPDATE quando exclusive, FOR SHARE caso contrário
	LockRace(ctx context.Context, raceID string, exclusive bool) (model.Race, error)
	UpdateRace(ctx context.Context, race model.Race) error

	SetFinishPosition(ctx context.Context, raceID, entrantID string, position int) error
	ClearFinishPositions(ctx context.Context, raceID string) error
	// Entrants devolve os inscritos ordenados por colocação (sem colocação por último)
	Entrants(ctx context.Context, raceID string) ([]model.Entrant, error)

	// Wagers devolve as apostas da corrida em ordem de criação
	Wagers(ctx context.Context, raceID string) ([]model.Wager, error)
	InsertWager(ctx context.Context, w model.Wager) error
	UpdateWagerResult(ctx context.Context, w model.Wager) error
	ResetWagers(ctx context.Context, raceID string) error

	// ReplacePayoutResults apaga os resultados da corrida e grava os informados
	ReplacePayoutResults(ctx context.Context, raceID string, results []model.PayoutResult) error

	// LockWallet trava a carteira (FOR UPDATE)
	LockWallet(ctx context.Context, walletID string) (model.Wallet, error)
	SetWalletBalance(ctx context.Context, walletID string, balance int64) error
	InsertTransaction(ctx context.Context, t model.Transaction) error
}

// Publisher recebe eventos de corrida; entrega sem garantia (fire-and-forget)
type Publisher interface {
	Publish(ctx context.Context, e events.RaceEvent) error
}

type Options struct {
	// ConsolationRate é a devolução aplicada quando um tipo de aposta não tem acertador.
	// nil usa DefaultConsolationRate; zero é válido e não devolve nada.
	ConsolationRate *decimal.Decimal
	Now             func() time.Time
	NewID           func() string
}

// Engine é o motor de apuração pari-mutuel
type Engine struct {
	log   *zap.Logger
	store Store
	publ  Publisher

	consolationRate decimal.Decimal
	now             func() time.Time
	newID           func() string

	OnWagerPlaced func(betType string, amount int64) // métricas
	OnSettled     func(wagers int, duration time.Duration)
	OnDisbursed   func(credited int64)
	OnError       func(op string) // métricas por operação
}

// DefaultConsolationRate é a devolução histórica (70 por 100 apostados)
var DefaultConsolationRate = decimal.RequireFromString("0.7")

// ParseConsolationRate lê a taxa de devolução configurada; precisa estar em [0, 1]
func ParseConsolationRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, newErr(ErrValidation, fmt.Sprintf("invalid consolation rate %q", s))
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, ErrInvalidConsolation
	}
	return d, nil
}

func New(log *zap.Logger, store Store, publ Publisher, opts Options) *Engine {
	e := &Engine{
		log:             log,
		store:           store,
		publ:            publ,
		consolationRate: DefaultConsolationRate,
		now:             opts.Now,
		newID:           opts.NewID,
	}
	if opts.ConsolationRate != nil {
		e.consolationRate = *opts.ConsolationRate
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// publish roda depois do commit; falha não desfaz nada, só é registrada
func (e *Engine) publish(ctx context.Context, kind events.RaceEventKind, raceID string) {
	if e.publ == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	ev := events.RaceEvent{Kind: kind, RaceID: raceID, Timestamp: e.now()}
	if err := e.publ.Publish(ctx, ev); err != nil {
		e.log.Warn("race event publish failed",
			zap.String("race_id", raceID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		e.fail("publish")
	}
}

func (e *Engine) fail(op string) {
	if e.OnError != nil {
		e.OnError(op)
	}
}
