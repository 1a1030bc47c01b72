package dto

import (
	"time"

	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

// Race é o estado público da corrida
type Race struct {
	RaceID      string     `json:"raceId"`
	Name        string     `json:"name"`
	StartsAt    time.Time  `json:"startsAt"`
	ClosingAt   *time.Time `json:"closingAt,omitempty"`
	Status      string     `json:"status"`
	Phase       string     `json:"phase"` // OPEN | AWAITING_RESULT | SETTLED | FINALIZED | CANCELLED
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
}

// Payouts são os rateios publicados de uma corrida
type Payouts struct {
	RaceID  string                 `json:"raceId"`
	Payouts []events.PayoutSummary `json:"payouts"`
}
