package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-service/model"
	"github.com/radieske/race-bet-platform/internal/race-status/dto"
	"github.com/radieske/race-bet-platform/internal/race-status/repo"
	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

// ReadRepo é a leitura em banco usada quando o cache não tem a corrida
type ReadRepo interface {
	GetRace(ctx context.Context, raceID string) (dto.Race, error)
	PayoutResults(ctx context.Context, raceID string) ([]events.PayoutSummary, error)
}

type PayoutCache interface {
	GetPayouts(ctx context.Context, raceID string, dst any) (bool, error)
	SetPayouts(ctx context.Context, raceID string, v any, ttl time.Duration) error
}

// API expõe a consulta de corridas e rateios e o endpoint WebSocket
type API struct {
	Log      *zap.Logger
	ReadRepo ReadRepo
	Cache    PayoutCache
	TTL      time.Duration
	WS       http.HandlerFunc

	OnCacheHit  func()
	OnCacheMiss func()
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/races/{id}", a.getRace)            // estado e fase da corrida
	r.Get("/v1/races/{id}/payouts", a.getPayouts) // rateios publicados
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) getRace(w http.ResponseWriter, r *http.Request) {
	race, err := a.ReadRepo.GetRace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, race)
}

// getPayouts lê do cache e, na falta, do banco
func (a *API) getPayouts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fromCache []events.PayoutSummary
	if ok, err := a.Cache.GetPayouts(r.Context(), id, &fromCache); ok && err == nil {
		if a.OnCacheHit != nil {
			a.OnCacheHit()
		}
		writeJSON(w, http.StatusOK, dto.Payouts{RaceID: id, Payouts: fromCache})
		return
	} else if err != nil {
		a.Log.Warn("payout cache read failed", zap.String("race_id", id), zap.Error(err))
	}
	if a.OnCacheMiss != nil {
		a.OnCacheMiss()
	}

	race, err := a.ReadRepo.GetRace(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}
	payouts, err := a.ReadRepo.PayoutResults(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}

	// só corrida finalizada é imutável; rateio de SETTLED pode ser desfeito por um
	// reset concorrente e quem popula o cache nesse caso é o race-events-worker
	if len(payouts) > 0 && race.Phase == string(model.PhaseFinalized) {
		if err := a.Cache.SetPayouts(r.Context(), id, payouts, a.TTL); err != nil {
			a.Log.Warn("payout cache write failed", zap.String("race_id", id), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, dto.Payouts{RaceID: id, Payouts: payouts})
}

func (a *API) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	a.Log.Error("read failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
