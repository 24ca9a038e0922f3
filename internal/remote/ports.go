package remote

import (
	"context"
	"net/url"
	"strings"

	"budgetbabah/internal/core"
)

// Ports for outbound replica adapters.
//
// Push is fire-and-forget: a nil error means the request was dispatched
// without a transport failure, not that the endpoint confirmed receipt.
// Pull returns the remote snapshot; an empty snapshot with a nil error
// means the endpoint had nothing to apply. Ping is purely diagnostic.
type Replica interface {
	Push(ctx context.Context, year core.FullYearData) error
	Pull(ctx context.Context) (core.FullYearData, error)
	Ping(ctx context.Context) error
}

// Factory builds a replica for an endpoint URL. The sync engine uses it to
// rebuild its replica whenever the user saves new settings, and to build
// throwaway replicas for connection tests.
type Factory func(endpoint string) Replica

// ValidEndpoint reports whether raw is an absolute http(s) URL. Anything
// else means "sync disabled": remote operations silently no-op on it.
func ValidEndpoint(raw string) bool {
	if !strings.HasPrefix(raw, "http") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
