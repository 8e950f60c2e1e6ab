package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/internal/api/response"
	"github.com/joonhokim/stockpulse/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const keyPrefixLen = 8

// SessionHeader carries the anonymous session id for callers without an API key.
const SessionHeader = "X-Session-ID"

// Auth resolves the requesting principal. A Bearer API key yields the key
// owner's principal; otherwise a UUID in the X-Session-ID header yields an
// anonymous principal. Requests with neither are rejected.
type Auth struct {
	store store.Store
}

// NewAuth creates a new Auth middleware.
func NewAuth(s store.Store) *Auth {
	return &Auth{store: s}
}

// Authenticate resolves and stores the principal in the request context,
// or fails with code 40100.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rawKey := extractBearerToken(r); rawKey != "" {
			principal, ok := a.resolveAPIKey(r, rawKey)
			if !ok {
				response.Error(w, http.StatusUnauthorized,
					response.CodeUnauthenticated, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(SetPrincipal(r.Context(), principal)))
			return
		}

		if sessionID, err := uuid.Parse(r.Header.Get(SessionHeader)); err == nil {
			principal := Principal{ID: sessionID, Anonymous: true}
			next.ServeHTTP(w, r.WithContext(SetPrincipal(r.Context(), principal)))
			return
		}

		response.Error(w, http.StatusUnauthorized,
			response.CodeUnauthenticated, "Authentication required")
	})
}

func (a *Auth) resolveAPIKey(r *http.Request, rawKey string) (Principal, bool) {
	if len(rawKey) < keyPrefixLen {
		return Principal{}, false
	}
	prefix := rawKey[:keyPrefixLen]

	keys, err := a.store.GetAPIKeyByPrefix(r.Context(), prefix)
	if err != nil {
		return Principal{}, false
	}

	for _, key := range keys {
		if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)) == nil {
			// Update last_used_at async
			go a.store.UpdateAPIKeyLastUsed(context.Background(), key.ID)
			return Principal{ID: key.OwnerID, Scopes: key.Scopes}, true
		}
	}
	return Principal{}, false
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
