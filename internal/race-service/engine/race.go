package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-service/model"
	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

// CloseRace encerra as apostas (SCHEDULED -> CLOSED). Fechar de novo não é erro.
func (e *Engine) CloseRace(ctx context.Context, raceID string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}

	changed := false
	err := e.store.InTx(ctx, func(tx Tx) error {
		race, err := tx.LockRace(ctx, raceID, true)
		if err != nil {
			return err
		}
		switch race.Status {
		case model.RaceClosed:
			return nil
		case model.RaceScheduled:
		default:
			return ErrRaceNotClosable
		}
		race.Status = model.RaceClosed
		changed = true
		return tx.UpdateRace(ctx, race)
	})
	if err != nil {
		e.fail("close")
		return err
	}

	if changed {
		e.log.Info("race closed", zap.String("race_id", raceID))
		e.publish(ctx, events.RaceClosed, raceID)
	}
	return nil
}

// Reset limpa colocações, rateios e apuração para permitir novo lançamento.
// Só é permitido antes do pagamento.
func (e *Engine) Reset(ctx context.Context, raceID string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}

	err := e.store.InTx(ctx, func(tx Tx) error {
		race, err := tx.LockRace(ctx, raceID, true)
		if err != nil {
			return err
		}
		if !race.CanReset() {
			return ErrResetNotAllowed
		}

		if err := tx.ClearFinishPositions(ctx, raceID); err != nil {
			return fmt.Errorf("clear finish positions: %w", err)
		}
		if err := tx.ReplacePayoutResults(ctx, raceID, nil); err != nil {
			return fmt.Errorf("delete payout results: %w", err)
		}
		if err := tx.ResetWagers(ctx, raceID); err != nil {
			return fmt.Errorf("reset wagers: %w", err)
		}

		race.Settled = false
		return tx.UpdateRace(ctx, race)
	})
	if err != nil {
		e.fail("reset")
		return err
	}

	e.log.Info("race results reset", zap.String("race_id", raceID))
	e.publish(ctx, events.RaceReset, raceID)
	return nil
}

// PayoutResults lista os rateios publicados da corrida
func (e *Engine) PayoutResults(ctx context.Context, raceID string) ([]model.PayoutResult, error) {
	return e.store.PayoutResults(ctx, raceID)
}
