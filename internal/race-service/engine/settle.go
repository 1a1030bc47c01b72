package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-service/model"
	"github.com/radieske/race-bet-platform/internal/race-service/parimutuel"
	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

// PayoutMode define como o pool é repartido entre os acertadores
type PayoutMode string

const (
	// TotalDistribution devolve o pool inteiro aos acertadores (sem retenção)
	TotalDistribution PayoutMode = "TOTAL_DISTRIBUTION"
	// Manual aplica a taxa de retenção informada pelo operador
	Manual PayoutMode = "MANUAL"
)

// PayoutOptions são os parâmetros de pagamento de uma apuração; TakeoutRate só vale em MANUAL
type PayoutOptions struct {
	Mode        PayoutMode
	TakeoutRate decimal.Decimal
}

func (o PayoutOptions) takeout() (decimal.Decimal, error) {
	switch o.Mode {
	case "", TotalDistribution:
		return decimal.Zero, nil
	case Manual:
		if o.TakeoutRate.IsNegative() || o.TakeoutRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return decimal.Zero, ErrInvalidTakeout
		}
		return o.TakeoutRate, nil
	default:
		return decimal.Zero, ErrInvalidMode
	}
}

// FinishResult é a colocação informada para um inscrito
type FinishResult struct {
	EntrantID      string `json:"entryId"`
	FinishPosition int    `json:"finishPosition"`
}

// Settlement resume a apuração gravada
type Settlement struct {
	RaceID   string
	Hits     int
	Lost     int
	Refunded int
	Results  []model.PayoutResult
}

// Settle grava o resultado, apura todas as apostas e publica os rateios.
// Pode ser repetida até o pagamento; cada execução substitui a anterior por inteiro.
func (e *Engine) Settle(ctx context.Context, raceID string, results []FinishResult, opts PayoutOptions) (*Settlement, error) {
	start := e.now()
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	takeout, err := opts.takeout()
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.FinishPosition <= 0 {
			return nil, ErrInvalidPosition
		}
	}

	var out *Settlement
	err = e.store.InTx(ctx, func(tx Tx) error {
		race, err := tx.LockRace(ctx, raceID, true)
		if err != nil {
			return err
		}
		if !race.CanSettle() {
			return ErrRaceNotSettleable
		}

		for _, r := range results {
			if err := tx.SetFinishPosition(ctx, raceID, r.EntrantID, r.FinishPosition); err != nil {
				if errors.Is(err, ErrNotFound) {
					return ErrUnknownEntrant
				}
				return fmt.Errorf("set finish position: %w", err)
			}
		}

		entrants, err := tx.Entrants(ctx, raceID)
		if err != nil {
			return fmt.Errorf("load entrants: %w", err)
		}
		finishers := buildFinishers(entrants)
		if len(finishers) == 0 {
			return ErrNoResults
		}

		wagers, err := tx.Wagers(ctx, raceID)
		if err != nil {
			return fmt.Errorf("load wagers: %w", err)
		}

		settled, payoutResults := computeSettlement(raceID, wagers, finishers, takeout, e.consolationRate)
		s := &Settlement{RaceID: raceID, Results: payoutResults}
		for _, w := range settled {
			if err := tx.UpdateWagerResult(ctx, w); err != nil {
				return fmt.Errorf("update wager %s: %w", w.ID, err)
			}
			switch w.Status {
			case model.WagerHit:
				s.Hits++
			case model.WagerRefunded:
				s.Refunded++
			default:
				s.Lost++
			}
		}

		if err := tx.ReplacePayoutResults(ctx, raceID, payoutResults); err != nil {
			return fmt.Errorf("replace payout results: %w", err)
		}

		race.Status = model.RaceClosed
		race.Settled = true
		if err := tx.UpdateRace(ctx, race); err != nil {
			return fmt.Errorf("update race: %w", err)
		}
		out = s
		return nil
	})
	if err != nil {
		e.fail("settle")
		return nil, err
	}

	e.log.Info("race settled",
		zap.String("race_id", raceID),
		zap.Int("hits", out.Hits),
		zap.Int("lost", out.Lost),
		zap.Int("refunded", out.Refunded),
		zap.String("takeout", takeout.String()),
	)
	if e.OnSettled != nil {
		e.OnSettled(out.Hits+out.Lost+out.Refunded, time.Since(start))
	}
	e.publish(ctx, events.RaceClosed, raceID)
	return out, nil
}

// buildFinishers descarta inscritos sem colocação e ordena por colocação
func buildFinishers(entrants []model.Entrant) []parimutuel.Finisher {
	placed := make([]model.Entrant, 0, len(entrants))
	for _, en := range entrants {
		if en.FinishPosition != nil {
			placed = append(placed, en)
		}
	}
	sort.SliceStable(placed, func(i, j int) bool {
		return *placed[i].FinishPosition < *placed[j].FinishPosition
	})

	out := make([]parimutuel.Finisher, len(placed))
	for i, en := range placed {
		out[i] = parimutuel.Finisher{Number: en.Number, Bracket: en.Bracket}
	}
	return out
}

// pool acumula o que foi apostado em um tipo de aposta
type pool struct {
	total        int64
	winningStake map[string]int64 // chave da seleção -> soma apostada
	winningNums  map[string][]int // chave da seleção -> números canônicos
}

func (p *pool) totalWinning() int64 {
	var sum int64
	for _, v := range p.winningStake {
		sum += v
	}
	return sum
}

// computeSettlement é a parte pura da apuração: devolve as apostas com status/pagamento
// definidos e os rateios publicáveis, ordenados por tipo e combinação.
func computeSettlement(raceID string, wagers []model.Wager, finishers []parimutuel.Finisher, takeout, consolation decimal.Decimal) ([]model.Wager, []model.PayoutResult) {
	pools := make(map[string]*pool)
	winningKey := make(map[string]string, len(wagers)) // wager id -> chave, só acertadores

	for _, w := range wagers {
		p, ok := pools[w.BetType]
		if !ok {
			p = &pool{winningStake: map[string]int64{}, winningNums: map[string][]int{}}
			pools[w.BetType] = p
		}
		p.total += w.Amount

		if !parimutuel.IsWinningBet(w.BetType, w.Selections, finishers) {
			continue
		}
		bt, _ := parimutuel.Lookup(w.BetType)
		key := bt.SelectionKey(w.Selections)
		p.winningStake[key] += w.Amount
		p.winningNums[key] = bt.Canonical(w.Selections)
		winningKey[w.ID] = key
	}

	combos := make(map[string]map[string]model.Combination) // tipo -> chave -> combinação
	addCombo := func(betType, key string, c model.Combination) {
		if combos[betType] == nil {
			combos[betType] = map[string]model.Combination{}
		}
		if _, seen := combos[betType][key]; !seen {
			combos[betType][key] = c
		}
	}

	out := make([]model.Wager, len(wagers))
	for i, w := range wagers {
		p := pools[w.BetType]
		w.Status, w.Payout, w.Rate = model.WagerLost, 0, decimal.Zero

		switch {
		case len(p.winningStake) > 0:
			key, hit := winningKey[w.ID]
			if !hit {
				break
			}
			rate := parimutuel.CalculatePayoutRate(p.total, p.winningStake[key], p.totalWinning(), len(p.winningStake), takeout)
			w.Status = model.WagerHit
			w.Payout = parimutuel.PayoutFor(w.Amount, rate)
			w.Rate = rate
			addCombo(w.BetType, key, model.Combination{Numbers: p.winningNums[key], Payout: parimutuel.UnitPayout(rate)})

		case p.total > 0:
			// ninguém acertou: devolução parcial para o tipo inteiro
			w.Status = model.WagerRefunded
			w.Payout = parimutuel.PayoutFor(w.Amount, consolation)
			w.Rate = consolation
			addCombo(w.BetType, "", model.Combination{Numbers: []int{}, Payout: parimutuel.UnitPayout(consolation)})
		}
		out[i] = w
	}

	types := make([]string, 0, len(combos))
	for t := range combos {
		types = append(types, t)
	}
	sort.Strings(types)

	results := make([]model.PayoutResult, 0, len(types))
	for _, t := range types {
		list := make([]model.Combination, 0, len(combos[t]))
		for _, c := range combos[t] {
			list = append(list, c)
		}
		sort.Slice(list, func(i, j int) bool { return lessInts(list[i].Numbers, list[j].Numbers) })
		results = append(results, model.PayoutResult{RaceID: raceID, BetType: t, Combinations: list})
	}
	return out, results
}

func lessInts(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
