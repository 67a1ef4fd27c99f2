package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/FACorreiaa/bizpulse/internal/domain/import/parser"
	"github.com/FACorreiaa/bizpulse/internal/domain/import/validator"
	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

// State is the lifecycle position of an import batch
type State string

const (
	StateIdle          State = "idle"
	StateParsed        State = "parsed"
	StateInvalid       State = "invalid"
	StatePendingCommit State = "valid_pending_commit"
	StateCommitting    State = "committing"
	StateCommitted     State = "committed"
)

var (
	// ErrNotCommittable is returned when Commit is called without a valid pending batch
	ErrNotCommittable = errors.New("no valid batch pending commit")
	// ErrCommitInProgress is returned while a commit for the same owner and kind is running
	ErrCommitInProgress = errors.New("commit already in progress")
)

// CommitError reports a commit that stopped part way. Inserted records stay
// stored; committing the same batch again skips them.
type CommitError struct {
	Kind     records.Kind
	Inserted int
	Err      error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit of %s stopped after %d records: %v", e.Kind, e.Inserted, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// CommitResult summarises a finished commit
type CommitResult struct {
	Kind     records.Kind `json:"kind"`
	Total    int          `json:"total"`
	Inserted int          `json:"inserted"`
	Skipped  int          `json:"skipped"` // already stored by an earlier attempt
	Vehicles int          `json:"vehicles"`
}

// Batch is the in-memory state of one owner's import for one kind
type Batch struct {
	Kind        records.Kind
	FileName    string
	Fingerprint string
	Headers     []string
	Rows        []parser.Row
	Errors      []validator.ValidationError
	Suggestions []validator.HeaderSuggestion
	State       State
	Result      *CommitResult
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BatchView is the read-only projection of a batch returned to callers
type BatchView struct {
	Kind        records.Kind                 `json:"kind"`
	FileName    string                       `json:"file_name,omitempty"`
	Fingerprint string                       `json:"fingerprint,omitempty"`
	State       State                        `json:"state"`
	Valid       bool                         `json:"valid"`
	Headers     []string                     `json:"headers"`
	TotalRows   int                          `json:"total_rows"`
	Preview     []parser.Row                 `json:"preview"`
	Errors      []validator.ValidationError  `json:"errors"`
	Suggestions []validator.HeaderSuggestion `json:"suggestions,omitempty"`
	Result      *CommitResult                `json:"result,omitempty"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

func (b *Batch) view(previewSize int) BatchView {
	n := min(len(b.Rows), previewSize)
	preview := make([]parser.Row, n)
	copy(preview, b.Rows[:n])
	errs := make([]validator.ValidationError, len(b.Errors))
	copy(errs, b.Errors)
	return BatchView{
		Kind:        b.Kind,
		FileName:    b.FileName,
		Fingerprint: b.Fingerprint,
		State:       b.State,
		Valid:       b.valid(),
		Headers:     b.Headers,
		TotalRows:   len(b.Rows),
		Preview:     preview,
		Errors:      errs,
		Suggestions: b.Suggestions,
		Result:      b.Result,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (b *Batch) valid() bool {
	switch b.State {
	case StatePendingCommit, StateCommitting, StateCommitted:
		return len(b.Errors) == 0
	}
	return false
}

func (b *Batch) reset(kind records.Kind, now time.Time) {
	*b = Batch{Kind: kind, State: StateIdle, CreatedAt: now, UpdatedAt: now}
}
