package domain

import "time"

// ChatTurn is one question/answer exchange about a repository.
// Turns are append-only; ordering by CreatedAt defines conversation
// history. A turn is only recorded after a successful answer.
type ChatTurn struct {
	// ID is the unique identifier for the turn.
	ID string

	// Repo identifies the repository the conversation is about.
	Repo RepositoryRef

	// Question is the user's question.
	Question string

	// Answer is the generated answer.
	Answer string

	// CreatedAt orders the conversation history.
	CreatedAt time.Time
}

// ContextBundle is the subset of stored documentation selected as
// relevant to a chat question. The repository overview is always
// present; FileDocs are ordered most relevant first and may be empty
// when nothing scored above the relevance floor.
type ContextBundle struct {
	// Repo identifies the repository the bundle describes.
	Repo RepositoryRef

	// Overview is the repository-level documentation.
	Overview string

	// FileDocs are the selected per-file docs, most relevant first.
	FileDocs []FileDoc

	// LowContext is true when no file doc scored above the relevance
	// floor and the bundle carries only the overview. The answerer
	// must acknowledge the limited grounding instead of guessing.
	LowContext bool
}
