package dto

import "github.com/shopspring/decimal"

type PlaceWagerRequest struct {
	RaceID     string `json:"raceId"`
	WalletID   string `json:"walletId"`
	BetType    string `json:"type"`       // ex: "win", "quinella", "trifecta"
	Selections []int  `json:"selections"` // números dos cavalos (ou grupos no bracket_quinella)
	Amount     int64  `json:"amount"`
}

type FinishResult struct {
	EntryID        string `json:"entryId"`
	FinishPosition int    `json:"finishPosition"`
}

// SettleRequest traz as colocações; modo vazio usa o padrão configurado
type SettleRequest struct {
	Results     []FinishResult   `json:"results"`
	PayoutMode  string           `json:"payoutMode,omitempty"` // TOTAL_DISTRIBUTION | MANUAL
	TakeoutRate *decimal.Decimal `json:"takeoutRate,omitempty"`
}

type DepositRequest struct {
	Amount int64 `json:"amount"`
}
