package events

import "time"

// PayoutCombination é uma combinação vencedora e o pagamento por 100 apostados.
// Numbers vazio indica devolução de consolação.
type PayoutCombination struct {
	Numbers []int `json:"numbers"`
	Payout  int64 `json:"payout"`
}

// PayoutSummary agrupa as combinações de um tipo de aposta
type PayoutSummary struct {
	BetType      string              `json:"type"`
	Combinations []PayoutCombination `json:"combinations"`
}

// RaceUpdate é o payload enviado pelo canal Redis ao WebSocket do race-status-service
type RaceUpdate struct {
	RaceID    string          `json:"raceId"`
	Kind      RaceEventKind   `json:"kind"`
	Payouts   []PayoutSummary `json:"payouts,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
