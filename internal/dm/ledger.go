// Package dm enforces the fixed exchange budget on ephemeral direct-message
// threads.
package dm

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"event-photo-service/internal/models"
	"event-photo-service/internal/observability"
	"event-photo-service/internal/repositories"
)

// MessageBudget is the fixed number of messages permitted per thread
// before participants must exchange contact information outside the app.
const MessageBudget = 10

// MaxContentLen bounds message content length in characters.
const MaxContentLen = 1000

// BudgetExceededHint is the user-facing hint returned with budget
// rejections.
const BudgetExceededHint = "message limit reached for this thread; exchange contact details to keep talking"

var (
	ErrThreadNotFound = errors.New("dm thread not found")
	ErrForbidden      = errors.New("sender is not a thread participant")
	ErrBudgetExceeded = errors.New("dm thread budget exceeded")
	ErrEmptyContent   = errors.New("message content is empty")
	ErrContentTooLong = errors.New("message content exceeds maximum length")
)

// SendReceipt is the result of a successful send.
type SendReceipt struct {
	Message   models.DMMessage `json:"message"`
	Count     int              `json:"count"`
	Remaining int              `json:"remaining"`
}

// Ledger guards the per-thread message counter. The check and increment
// execute as one conditional update inside the repository, so the ledger
// itself never reads the counter before writing it.
type Ledger struct {
	threads repositories.DMThreadRepository
}

// NewLedger constructs a Ledger.
func NewLedger(threads repositories.DMThreadRepository) *Ledger {
	return &Ledger{threads: threads}
}

// TrySend validates the message, claims budget atomically, and persists the
// message. Content validation happens before the counter is touched so a
// rejected message never consumes budget.
func (l *Ledger) TrySend(ctx context.Context, threadID, senderID, content string) (SendReceipt, error) {
	if content == "" {
		return SendReceipt{}, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return SendReceipt{}, fmt.Errorf("%w: limit %d", ErrContentTooLong, MaxContentLen)
	}

	thread, err := l.threads.GetThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, repositories.ErrThreadNotFound) {
			return SendReceipt{}, ErrThreadNotFound
		}
		return SendReceipt{}, err
	}
	if !thread.HasParticipant(senderID) {
		return SendReceipt{}, ErrForbidden
	}

	count, under, err := l.threads.IncrementMessageCountIfUnderBudget(ctx, threadID, MessageBudget)
	if err != nil {
		return SendReceipt{}, err
	}
	if !under {
		observability.IncDMBudgetRejection()
		return SendReceipt{}, fmt.Errorf("%w: %s", ErrBudgetExceeded, BudgetExceededHint)
	}

	msg, err := l.threads.InsertMessage(ctx, models.DMMessage{
		ID:       uuid.NewString(),
		ThreadID: threadID,
		SenderID: senderID,
		Content:  content,
	})
	if err != nil {
		return SendReceipt{}, err
	}

	// The count comes back from the conditional update itself, so the
	// receipt stays exact under concurrent sends.
	return SendReceipt{Message: msg, Count: count, Remaining: MessageBudget - count}, nil
}
