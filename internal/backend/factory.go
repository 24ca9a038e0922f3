// Package backend selects the remote replica implementation from
// configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budgetbabah/internal/remote"
	gsheet "budgetbabah/internal/remote/google"
	"budgetbabah/internal/remote/memory"
	"budgetbabah/internal/remote/script"
)

// Backend names selectable via configuration.
const (
	Script = "script"
	Sheets = "sheets"
	Memory = "memory"
)

// NewFactory returns the remote.Factory for the chosen backend.
//
// The script backend builds a fresh client per endpoint URL, which is how
// the engine follows settings changes. The sheets and memory backends have
// no per-endpoint state: sheets authenticates from the environment once and
// ignores the endpoint URL (the URL still gates whether sync is considered
// configured), memory keeps one shared replica for the process.
func NewFactory(ctx context.Context, name string) (remote.Factory, error) {
	switch name {
	case Script, "":
		return func(endpoint string) remote.Replica {
			return script.New(endpoint)
		}, nil
	case Sheets:
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize sheets replica: %w", err)
		}
		slog.InfoContext(ctx, "Initialized Google Sheets replica")
		return func(string) remote.Replica { return cli }, nil
	case Memory:
		rep := memory.New()
		return func(string) remote.Replica { return rep }, nil
	default:
		return nil, fmt.Errorf("unsupported remote backend: %s", name)
	}
}
