package auth

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"imposter-stats/internal/platform/respond"
)

// SecretHeader carries the ingest secret when no Authorization header is sent
const SecretHeader = "X-Ingest-Secret"

// Middleware rejects requests without a valid ingest credential
func (s *Service) Middleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		credential, ok := credentialFrom(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized", ErrMissingCredentials)
			return
		}

		caller, err := s.Authenticate(credential)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "unauthorized", err)
			return
		}

		next(w, r.WithContext(SetCallerInContext(r.Context(), caller)), ps)
	}
}

func credentialFrom(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if secret := r.Header.Get(SecretHeader); secret != "" {
		return secret, true
	}
	return "", false
}
