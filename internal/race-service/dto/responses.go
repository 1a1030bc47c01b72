package dto

import (
	"time"

	"github.com/radieske/race-bet-platform/internal/race-service/model"
)

type WagerResponse struct {
	WagerID    string    `json:"wagerId"`
	RaceID     string    `json:"raceId"`
	WalletID   string    `json:"walletId"`
	BetType    string    `json:"type"`
	Selections []int     `json:"selections"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type SettleResponse struct {
	RaceID   string               `json:"raceId"`
	Hits     int                  `json:"hits"`
	Lost     int                  `json:"lost"`
	Refunded int                  `json:"refunded"`
	Results  []model.PayoutResult `json:"results"`
}

type DisburseResponse struct {
	RaceID   string `json:"raceId"`
	Credited int64  `json:"credited"`
	Payouts  int    `json:"payouts"`
}

type WalletResponse struct {
	WalletID string `json:"walletId"`
	UserID   string `json:"userId"`
	Balance  int64  `json:"balance"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
