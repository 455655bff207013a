package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
	"github.com/sujeethshingade/docster/internal/core/ports/driving"
	"github.com/sujeethshingade/docster/internal/logger"
)

// Ensure ChatAnswerer implements the interface.
var _ driving.ChatService = (*ChatAnswerer)(nil)

// Chat defaults.
const (
	// DefaultHistoryWindow is how many recent turns are replayed
	// into the prompt; older turns are dropped first.
	DefaultHistoryWindow = 6

	// answerMaxTokens bounds the generated answer length.
	answerMaxTokens = 1024
)

// chatSystemPrompt grounds the model in retrieved documentation.
const chatSystemPrompt = `You are a helpful assistant that answers questions about the repository
%s based on its generated documentation.

Answer as accurately as possible using only the context below. If the
context does not contain the answer, say so rather than guessing.

Repository overview:
%s
%s`

// lowContextNote is appended to the system prompt when retrieval
// found no relevant file documentation.
const lowContextNote = `
Note: no file-level documentation matched this question. Ground your
answer in the repository overview only, and be explicit about the
limits of what you can answer.`

// ChatAnswerer answers questions about a documented repository.
// It only touches stored documentation through the retriever and only
// appends chat turns, never mutating FileDocs or RepoDocs.
type ChatAnswerer struct {
	store     driven.DocStore
	retriever *Retriever
	llm       driven.LLMService
	retry     RetryPolicy
	window    int
	now       func() time.Time
}

// ChatOption configures a ChatAnswerer.
type ChatOption func(*ChatAnswerer)

// WithHistoryWindow bounds how many recent turns enter the prompt.
func WithHistoryWindow(n int) ChatOption {
	return func(c *ChatAnswerer) {
		if n >= 0 {
			c.window = n
		}
	}
}

// NewChatAnswerer creates the chat service.
func NewChatAnswerer(
	store driven.DocStore,
	retriever *Retriever,
	llm driven.LLMService,
	retry RetryPolicy,
	opts ...ChatOption,
) *ChatAnswerer {
	c := &ChatAnswerer{
		store:     store,
		retriever: retriever,
		llm:       llm,
		retry:     retry,
		window:    DefaultHistoryWindow,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask retrieves context, assembles the prompt and generates an
// answer. The turn is recorded only after the backend succeeds;
// failed generations surface *domain.AnswerError and leave no trace
// in the history.
func (c *ChatAnswerer) Ask(
	ctx context.Context, ref domain.RepositoryRef, question string,
) (*domain.ChatTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrInvalidInput
	}
	if c.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	bundle, err := c.retriever.Retrieve(ctx, ref, question)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoDocumentation
		}
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	history, err := c.store.ListChatTurns(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := c.assembleMessages(bundle, history, question)

	var answer string
	genErr := c.retry.Do(ctx, func() error {
		var chatErr error
		answer, chatErr = c.llm.Chat(ctx, messages, driven.ChatOptions{
			MaxTokens:   answerMaxTokens,
			Temperature: 0.2,
		})
		return chatErr
	})
	if genErr != nil {
		return nil, &domain.AnswerError{Reason: genErr.Error(), Err: genErr}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, &domain.AnswerError{Reason: "empty backend response"}
	}

	turn := domain.ChatTurn{
		ID:        uuid.New().String(),
		Repo:      ref,
		Question:  question,
		Answer:    answer,
		CreatedAt: c.now().UTC(),
	}
	if err := c.store.AppendChatTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("record chat turn: %w", err)
	}

	logger.Debug("Answered question for %s (history=%d, low_context=%t)",
		ref, len(history), bundle.LowContext)

	return &turn, nil
}

// History returns prior turns ordered oldest first.
func (c *ChatAnswerer) History(ctx context.Context, ref domain.RepositoryRef) ([]domain.ChatTurn, error) {
	return c.store.ListChatTurns(ctx, ref)
}

// assembleMessages builds the conversation in the fixed prompt order:
// overview and retrieved docs in the system message (most relevant
// first), then the most recent window of history, then the question.
func (c *ChatAnswerer) assembleMessages(
	bundle *domain.ContextBundle, history []domain.ChatTurn, question string,
) []driven.ChatMessage {
	var contextSection strings.Builder
	if len(bundle.FileDocs) > 0 {
		contextSection.WriteString("\nRelevant file documentation (most relevant first):\n")
		for _, fd := range bundle.FileDocs {
			fmt.Fprintf(&contextSection, "\n### %s\n%s\n", fd.Path, fd.Summary)
		}
	}
	if bundle.LowContext {
		contextSection.WriteString(lowContextNote)
	}

	system := fmt.Sprintf(chatSystemPrompt,
		bundle.Repo.String(), bundle.Overview, contextSection.String())

	messages := []driven.ChatMessage{{Role: "system", Content: system}}

	if c.window > 0 && len(history) > c.window {
		history = history[len(history)-c.window:]
	}
	if c.window == 0 {
		history = nil
	}
	for _, turn := range history {
		messages = append(messages,
			driven.ChatMessage{Role: "user", Content: turn.Question},
			driven.ChatMessage{Role: "assistant", Content: turn.Answer},
		)
	}

	return append(messages, driven.ChatMessage{Role: "user", Content: question})
}
