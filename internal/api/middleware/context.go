package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal identifies the requester: either an API-key owner or an
// anonymous browser session. Exactly one ID exists either way.
type Principal struct {
	ID        uuid.UUID
	Anonymous bool
	Scopes    []string
}

func SetPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func GetPrincipal(r *http.Request) (Principal, bool) {
	p, ok := r.Context().Value(principalKey).(Principal)
	return p, ok
}
