package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/radieske/race-bet-platform/internal/shared/auth"
)

var errNoSecret = errors.New("jwt secret not configured")

// Verifier valida o bearer token e extrai quem está chamando.
// Claims esperadas: "sub" (userId) e "role" (ADMIN | USER).
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(token string) (auth.Caller, error) {
	if len(v.secret) == 0 {
		return auth.Caller{}, errNoSecret
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return auth.Caller{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return auth.Caller{}, errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return auth.Caller{}, errors.New("token without subject")
	}
	role, _ := claims["role"].(string)
	if role != auth.RoleAdmin {
		role = auth.RoleUser
	}
	return auth.Caller{UserID: sub, Role: role}, nil
}

// withIdentity descarta qualquer X-User-* vindo do cliente e só repassa a
// identidade extraída de um token válido. Sem Authorization a requisição segue anônima.
func withIdentity(v *Verifier, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(r.Context())
		for name := range r2.Header {
			if strings.HasPrefix(http.CanonicalHeaderKey(name), "X-User-") {
				r2.Header.Del(name)
			}
		}

		if raw := r2.Header.Get("Authorization"); raw != "" {
			token, ok := strings.CutPrefix(raw, "Bearer ")
			if !ok {
				writeUnauthorized(w)
				return
			}
			c, err := v.Verify(token)
			if err != nil {
				writeUnauthorized(w)
				return
			}
			r2.Header.Set(auth.HeaderUserID, c.UserID)
			r2.Header.Set(auth.HeaderRole, c.Role)
			r2.Header.Del("Authorization")
		}
		h.ServeHTTP(w, r2)
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"invalid token"}`))
}
