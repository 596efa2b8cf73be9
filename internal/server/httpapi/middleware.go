package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/server/auth"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		h.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
		)
	})
}

func (h *handler) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.BodyLimit)
		next.ServeHTTP(w, r)
	})
}

// authenticate requires the same valid key in the apikey header and as the
// bearer token. Without a configured secret every request passes.
func (h *handler) authenticate(next http.Handler) http.Handler {
	if len(h.opts.JWTSecret) == 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(common.APIKeyHeaderName)
		bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

		if key == "" || !ok || subtle.ConstantTimeCompare([]byte(key), []byte(bearer)) != 1 {
			writeJSON(w, http.StatusUnauthorized, tableError{Message: common.ErrUnauthorized.Error()})
			return
		}

		claims, err := auth.ValidateToken(key, h.opts.JWTSecret)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, tableError{Message: err.Error()})
			return
		}

		h.logger.Debug(r.Context(), "authenticated", "role", claims.Role)
		next.ServeHTTP(w, r)
	})
}
