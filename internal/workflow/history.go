package workflow

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNoHistory is returned when an entity has no recorded transitions.
var ErrNoHistory = errors.New("workflow: no history")

// ActionVerify is the transition that marks results as verified.
const ActionVerify = "verify"

// Entry is one recorded workflow transition.
type Entry struct {
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Reader exposes the current state and history of workflow-managed entities.
type Reader interface {
	CurrentState(ctx context.Context, kind Kind, id string) (string, error)
	History(ctx context.Context, kind Kind, id string) ([]Entry, error)
}

// Directory resolves an actor id into a display name. An empty name means unknown.
type Directory interface {
	FullName(ctx context.Context, actor string) (string, error)
}

// Verifier returns the display name of the last actor who verified the entity.
// The actor id is used when the directory has no name for it. An empty string
// with a nil error means the entity was never verified.
func Verifier(ctx context.Context, history []Entry, dir Directory) (string, error) {
	if len(history) == 0 {
		return "", ErrNoHistory
	}
	verifier := ""
	for _, entry := range history {
		if entry.Action != ActionVerify {
			continue
		}
		actor := strings.TrimSpace(entry.Actor)
		name := ""
		if dir != nil && actor != "" {
			resolved, err := dir.FullName(ctx, actor)
			if err != nil {
				return "", err
			}
			name = strings.TrimSpace(resolved)
		}
		if name == "" {
			name = actor
		}
		verifier = name
	}
	return verifier, nil
}
