// Package gateway é a porta de entrada HTTP: encaminha cada prefixo ao serviço dono da rota.
package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
)

func rp(to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q", to)
	}
	return httputil.NewSingleHostReverseProxy(u), nil
}

// NewRouter monta o roteamento:
//
//	/api/races/*  -> race-service  (/v1/*)
//	/api/status/* -> race-status-service (/v1/*)
//	/ws           -> race-status-service (WebSocket)
//
// A identidade repassada aos serviços vem só do token validado por v.
func NewRouter(raceURL, statusURL string, v *Verifier) (http.Handler, error) {
	race, err := rp(raceURL)
	if err != nil {
		return nil, err
	}
	status, err := rp(statusURL)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/races/", http.StripPrefix("/api/races", withPrefix("/v1", race)))
	mux.Handle("/api/status/", http.StripPrefix("/api/status", withPrefix("/v1", status)))
	mux.Handle("/ws", status)
	return withCORS(withIdentity(v, mux)), nil
}

func withPrefix(prefix string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(r.Context())
		r2.URL.Path = prefix + r.URL.Path
		r2.URL.RawPath = ""
		h.ServeHTTP(w, r2)
	})
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
