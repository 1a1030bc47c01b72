package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-service/dto"
	"github.com/radieske/race-bet-platform/internal/race-service/engine"
	"github.com/radieske/race-bet-platform/internal/race-service/model"
	"github.com/radieske/race-bet-platform/internal/shared/auth"
)

// Engine define as operações do motor usadas pelos handlers
type Engine interface {
	PlaceWager(ctx context.Context, req engine.PlaceWagerRequest) (model.Wager, error)
	CloseRace(ctx context.Context, raceID string) error
	Settle(ctx context.Context, raceID string, results []engine.FinishResult, opts engine.PayoutOptions) (*engine.Settlement, error)
	Reset(ctx context.Context, raceID string) error
	Disburse(ctx context.Context, raceID string) (*engine.Disbursement, error)
	PayoutResults(ctx context.Context, raceID string) ([]model.PayoutResult, error)
	Wallet(ctx context.Context, walletID string) (model.Wallet, error)
	Deposit(ctx context.Context, walletID string, amount int64) (model.Wallet, error)
}

// Server expõe a API de apostas e apuração das corridas
type Server struct {
	log      *zap.Logger
	eng      Engine
	defaults engine.PayoutOptions // modo/retenção quando a requisição não informa
}

func NewServer(log *zap.Logger, eng Engine, defaults engine.PayoutOptions) *Server {
	return &Server{log: log, eng: eng, defaults: defaults}
}

// Router retorna o roteador HTTP; a identidade vem dos headers do api-gateway
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.Middleware)

	r.Post("/v1/wagers", s.placeWager)
	r.Route("/v1/races/{id}", func(r chi.Router) {
		r.Post("/close", s.closeRace)
		r.Post("/results", s.settle)
		r.Post("/reset", s.reset)
		r.Post("/disburse", s.disburse)
		r.Get("/payouts", s.payouts)
	})
	r.Get("/v1/wallets/{id}", s.getWallet)
	r.Post("/v1/wallets/{id}/deposit", s.deposit)
	return r
}

func (s *Server) placeWager(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if req.RaceID == "" || req.WalletID == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "raceId and walletId required"})
		return
	}

	wager, err := s.eng.PlaceWager(r.Context(), engine.PlaceWagerRequest{
		RaceID:     req.RaceID,
		WalletID:   req.WalletID,
		BetType:    req.BetType,
		Selections: req.Selections,
		Amount:     req.Amount,
	})
	if err != nil {
		s.writeError(w, "place_wager", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.WagerResponse{
		WagerID:    wager.ID,
		RaceID:     wager.RaceID,
		WalletID:   wager.WalletID,
		BetType:    wager.BetType,
		Selections: wager.Selections,
		Amount:     wager.Amount,
		Status:     string(wager.Status),
		CreatedAt:  wager.CreatedAt,
	})
}

func (s *Server) closeRace(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.CloseRace(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "close", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// settle lança as colocações e apura a corrida
func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}

	opts := s.defaults
	if req.PayoutMode != "" {
		opts = engine.PayoutOptions{Mode: engine.PayoutMode(req.PayoutMode)}
	}
	if req.TakeoutRate != nil {
		opts.TakeoutRate = *req.TakeoutRate
	}

	results := make([]engine.FinishResult, len(req.Results))
	for i, fr := range req.Results {
		results[i] = engine.FinishResult{EntrantID: fr.EntryID, FinishPosition: fr.FinishPosition}
	}

	out, err := s.eng.Settle(r.Context(), chi.URLParam(r, "id"), results, opts)
	if err != nil {
		s.writeError(w, "settle", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SettleResponse{
		RaceID:   out.RaceID,
		Hits:     out.Hits,
		Lost:     out.Lost,
		Refunded: out.Refunded,
		Results:  out.Results,
	})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "reset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) disburse(w http.ResponseWriter, r *http.Request) {
	out, err := s.eng.Disburse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "disburse", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.DisburseResponse{RaceID: out.RaceID, Credited: out.Credited, Payouts: out.Payouts})
}

func (s *Server) payouts(w http.ResponseWriter, r *http.Request) {
	res, err := s.eng.PayoutResults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "payouts", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.eng.Wallet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "wallet", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WalletResponse{WalletID: wallet.ID, UserID: wallet.UserID, Balance: wallet.Balance})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	wallet, err := s.eng.Deposit(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		s.writeError(w, "deposit", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WalletResponse{WalletID: wallet.ID, UserID: wallet.UserID, Balance: wallet.Balance})
}

// statusFor mapeia a classe do erro para o status HTTP
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		// detalhes internos ficam no log
		s.log.Error("request failed", zap.String("op", op), zap.Error(err))
		writeJSON(w, status, dto.ErrorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, dto.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
