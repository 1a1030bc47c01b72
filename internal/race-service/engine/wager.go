package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-service/model"
	"github.com/radieske/race-bet-platform/internal/race-service/parimutuel"
	"github.com/radieske/race-bet-platform/internal/shared/auth"
)

// PlaceWagerRequest é a aposta pedida por uma carteira
type PlaceWagerRequest struct {
	RaceID     string
	WalletID   string
	BetType    string
	Selections []int
	Amount     int64
}

// PlaceWager registra a aposta, o lançamento BET e o débito na carteira, tudo junto
func (e *Engine) PlaceWager(ctx context.Context, req PlaceWagerRequest) (model.Wager, error) {
	caller, ok := auth.FromContext(ctx)
	if !ok {
		return model.Wager{}, ErrNoCaller
	}
	if req.Amount <= 0 {
		return model.Wager{}, ErrInvalidAmount
	}
	bt, ok := parimutuel.Lookup(req.BetType)
	if !ok {
		return model.Wager{}, ErrUnknownBetType
	}
	if err := bt.Validate(req.Selections); err != nil {
		return model.Wager{}, &Error{Kind: ErrValidation, Reason: err.Error()}
	}

	var placed model.Wager
	err := e.store.InTx(ctx, func(tx Tx) error {
		race, err := tx.LockRace(ctx, req.RaceID, false)
		if err != nil {
			return err
		}
		if !race.AcceptsWagers(e.now()) {
			return ErrRaceNotAccepting
		}

		entrants, err := tx.Entrants(ctx, req.RaceID)
		if err != nil {
			return fmt.Errorf("load entrants: %w", err)
		}
		if !selectionsExist(bt, req.Selections, entrants) {
			return ErrInvalidSelection
		}

		wallet, err := tx.LockWallet(ctx, req.WalletID)
		if err != nil {
			return err
		}
		if !caller.Owns(wallet.UserID) {
			return ErrWalletNotOwned
		}
		if wallet.Balance < req.Amount {
			return ErrInsufficientBalance
		}

		now := e.now()
		placed = model.Wager{
			ID:         e.newID(),
			RaceID:     req.RaceID,
			WalletID:   wallet.ID,
			UserID:     caller.UserID,
			BetType:    bt.Code,
			Selections: append([]int(nil), req.Selections...),
			Amount:     req.Amount,
			Status:     model.WagerPending,
			CreatedAt:  now,
		}
		if err := tx.InsertWager(ctx, placed); err != nil {
			return fmt.Errorf("insert wager: %w", err)
		}
		if err := tx.InsertTransaction(ctx, model.Transaction{
			ID:          e.newID(),
			WalletID:    wallet.ID,
			Type:        model.TxBet,
			Amount:      -req.Amount,
			ReferenceID: placed.ID,
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("insert bet transaction: %w", err)
		}
		if err := tx.SetWalletBalance(ctx, wallet.ID, wallet.Balance-req.Amount); err != nil {
			return fmt.Errorf("debit wallet: %w", err)
		}
		return nil
	})
	if err != nil {
		e.fail("place_wager")
		return model.Wager{}, err
	}

	e.log.Debug("wager placed",
		zap.String("race_id", placed.RaceID),
		zap.String("wallet_id", placed.WalletID),
		zap.String("bet_type", placed.BetType),
		zap.Int64("amount", placed.Amount),
	)
	if e.OnWagerPlaced != nil {
		e.OnWagerPlaced(placed.BetType, placed.Amount)
	}
	return placed, nil
}

// selectionsExist confere se cada número (ou grupo) está entre os inscritos
func selectionsExist(bt parimutuel.BetType, selections []int, entrants []model.Entrant) bool {
	known := make(map[int]struct{}, len(entrants))
	for _, en := range entrants {
		if bt.UsesBracket() {
			known[en.Bracket] = struct{}{}
		} else {
			known[en.Number] = struct{}{}
		}
	}
	for _, s := range selections {
		if _, ok := known[s]; !ok {
			return false
		}
	}
	return true
}

// Wallet devolve a carteira ao dono ou a um administrador
func (e *Engine) Wallet(ctx context.Context, walletID string) (model.Wallet, error) {
	caller, ok := auth.FromContext(ctx)
	if !ok {
		return model.Wallet{}, ErrNoCaller
	}
	w, err := e.store.Wallet(ctx, walletID)
	if err != nil {
		return model.Wallet{}, err
	}
	if !caller.IsAdmin() && !caller.Owns(w.UserID) {
		return model.Wallet{}, ErrWalletNotOwned
	}
	return w, nil
}

// Deposit credita saldo de jogo em uma carteira (distribuição de fichas do evento)
func (e *Engine) Deposit(ctx context.Context, walletID string, amount int64) (model.Wallet, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return model.Wallet{}, err
	}
	if amount <= 0 {
		return model.Wallet{}, ErrInvalidAmount
	}

	var out model.Wallet
	err := e.store.InTx(ctx, func(tx Tx) error {
		w, err := tx.LockWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if err := tx.SetWalletBalance(ctx, w.ID, w.Balance+amount); err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}
		if err := tx.InsertTransaction(ctx, model.Transaction{
			ID:        e.newID(),
			WalletID:  w.ID,
			Type:      model.TxDeposit,
			Amount:    amount,
			CreatedAt: e.now(),
		}); err != nil {
			return fmt.Errorf("insert deposit transaction: %w", err)
		}
		w.Balance += amount
		out = w
		return nil
	})
	if err != nil {
		e.fail("deposit")
		return model.Wallet{}, err
	}
	e.log.Info("wallet deposit", zap.String("wallet_id", walletID), zap.Int64("amount", amount))
	return out, nil
}
