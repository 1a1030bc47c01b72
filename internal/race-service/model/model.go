// Package model contém as entidades persistidas do serviço de corridas.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

type RaceStatus string

const (
	RaceScheduled RaceStatus = "SCHEDULED"
	RaceClosed    RaceStatus = "CLOSED"
	RaceFinalized RaceStatus = "FINALIZED"
	RaceCancelled RaceStatus = "CANCELLED"
)

// RacePhase é a visão explícita do ciclo de vida usada pelas guardas do engine
type RacePhase string

const (
	PhaseOpen           RacePhase = "OPEN"            // SCHEDULED, aceitando apostas até o fechamento
	PhaseAwaitingResult RacePhase = "AWAITING_RESULT" // CLOSED, sem apuração
	PhaseSettled        RacePhase = "SETTLED"         // CLOSED, apurada, pagamento pendente
	PhaseFinalized      RacePhase = "FINALIZED"       // pago; imutável
	PhaseCancelled      RacePhase = "CANCELLED"
)

// Race é o modelo persistido da corrida
type Race struct {
	ID          string
	Name        string
	StartsAt    time.Time
	ClosingAt   *time.Time
	Status      RaceStatus
	Settled     bool
	FinalizedAt *time.Time
}

func (r Race) Phase() RacePhase {
	switch r.Status {
	case RaceScheduled:
		return PhaseOpen
	case RaceClosed:
		if r.Settled {
			return PhaseSettled
		}
		return PhaseAwaitingResult
	case RaceFinalized:
		return PhaseFinalized
	default:
		return PhaseCancelled
	}
}

// AcceptsWagers exige SCHEDULED e now anterior ao fechamento (quando houver)
func (r Race) AcceptsWagers(now time.Time) bool {
	if r.Status != RaceScheduled {
		return false
	}
	return r.ClosingAt == nil || now.Before(*r.ClosingAt)
}

// CanSettle: a apuração pode ser refeita enquanto nada foi pago
func (r Race) CanSettle() bool {
	p := r.Phase()
	return p == PhaseOpen || p == PhaseAwaitingResult || p == PhaseSettled
}

// CanReset é o único predicado que libera a reentrada de resultados
func (r Race) CanReset() bool {
	return r.Phase() != PhaseFinalized && r.Phase() != PhaseCancelled
}

func (r Race) CanDisburse() bool { return r.Phase() == PhaseSettled }

// Entrant é um cavalo inscrito na corrida
type Entrant struct {
	ID             string
	RaceID         string
	Number         int  // número do cavalo
	Bracket        int  // número do grupo (枠), usado no bracket_quinella
	FinishPosition *int // nil até o resultado ser lançado
}

type WagerStatus string

const (
	WagerPending  WagerStatus = "PENDING"
	WagerHit      WagerStatus = "HIT"
	WagerLost     WagerStatus = "LOST"
	WagerRefunded WagerStatus = "REFUNDED"
)

// Wager é a aposta de uma carteira em uma corrida
type Wager struct {
	ID         string
	RaceID     string
	WalletID   string
	UserID     string
	BetType    string
	Selections []int
	Amount     int64
	Status     WagerStatus
	Payout     int64
	Rate       decimal.Decimal // taxa registrada na apuração, uma casa decimal
	CreatedAt  time.Time
}

// Wallet pertence a um usuário; saldo nunca negativo
type Wallet struct {
	ID      string
	UserID  string
	Balance int64
}

type TransactionType string

const (
	TxBet     TransactionType = "BET"
	TxPayout  TransactionType = "PAYOUT"
	TxDeposit TransactionType = "DEPOSIT"
)

// Transaction é uma linha imutável do ledger; Amount negativo em BET
type Transaction struct {
	ID          string
	WalletID    string
	Type        TransactionType
	Amount      int64
	ReferenceID string // aposta de origem; vazio em DEPOSIT
	CreatedAt   time.Time
}

// Combination é um resultado publicado: números vencedores e pagamento por 100.
// É o mesmo tipo que trafega nos eventos e fica no JSONB de payout_results.
type Combination = events.PayoutCombination

// PayoutResult é o cache derivado por (corrida, tipo de aposta)
type PayoutResult struct {
	RaceID       string        `json:"raceId"`
	BetType      string        `json:"type"`
	Combinations []Combination `json:"combinations"`
}
