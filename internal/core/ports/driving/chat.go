package driving

import (
	"context"

	"github.com/sujeethshingade/docster/internal/core/domain"
)

// ChatService answers natural-language questions about a documented
// repository, grounding answers in retrieved documentation context
// and recent conversation history.
type ChatService interface {
	// Ask answers a question and records the completed turn.
	// Failed generations are not recorded.
	Ask(ctx context.Context, ref domain.RepositoryRef, question string) (*domain.ChatTurn, error)

	// History returns prior turns ordered oldest first.
	History(ctx context.Context, ref domain.RepositoryRef) ([]domain.ChatTurn, error)
}
