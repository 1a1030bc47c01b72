// Package auth carrega a identidade do chamador, já autenticada pelo api-gateway.
package auth

import (
	"context"
	"net/http"
)

const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"

	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Caller é quem executa a operação
type Caller struct {
	UserID string
	Role   string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// Owns indica se a carteira de userID pertence ao chamador
func (c Caller) Owns(userID string) bool { return c.UserID != "" && c.UserID == userID }

type ctxKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext devolve o chamador; ok=false quando a requisição chegou sem identidade
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	if !ok || c.UserID == "" {
		return Caller{}, false
	}
	return c, true
}

// Middleware copia os headers do gateway para o contexto.
// Requisições sem X-User-ID seguem anônimas; cada operação decide se exige identidade.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.Header.Get(HeaderUserID)
		if uid != "" {
			role := r.Header.Get(HeaderRole)
			if role == "" {
				role = RoleUser
			}
			r = r.WithContext(WithCaller(r.Context(), Caller{UserID: uid, Role: role}))
		}
		next.ServeHTTP(w, r)
	})
}
