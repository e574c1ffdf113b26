package dm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"event-photo-service/internal/mocks"
	"event-photo-service/internal/models"
	"event-photo-service/internal/repositories"
)

func testThread(count int) models.DMThread {
	return models.DMThread{
		ID:             "th1",
		EventID:        "ev1",
		ParticipantA:   "alice",
		ParticipantB:   "bob",
		MessageCount:   count,
		LastActivityAt: time.Now(),
	}
}

func TestTrySendValidatesContentBeforeCounter(t *testing.T) {
	threads := new(mocks.DMThreadRepositoryMock)
	ledger := NewLedger(threads)

	_, err := ledger.TrySend(context.Background(), "th1", "alice", "")
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = ledger.TrySend(context.Background(), "th1", "alice", strings.Repeat("x", 1001))
	assert.ErrorIs(t, err, ErrContentTooLong)

	// Rejected content must not consume budget or even load the thread.
	threads.AssertNotCalled(t, "GetThread", mock.Anything, mock.Anything)
	threads.AssertNotCalled(t, "IncrementMessageCountIfUnderBudget", mock.Anything, mock.Anything, mock.Anything)
}

func TestTrySendContentLengthBoundary(t *testing.T) {
	threads := new(mocks.DMThreadRepositoryMock)
	ledger := NewLedger(threads)

	content := strings.Repeat("y", 1000)
	threads.On("GetThread", mock.Anything, "th1").Return(testThread(0), nil).Once()
	threads.On("IncrementMessageCountIfUnderBudget", mock.Anything, "th1", MessageBudget).Return(1, true, nil).Once()
	threads.On("InsertMessage", mock.Anything, mock.Anything).Return(models.DMMessage{ID: "m1", ThreadID: "th1", SenderID: "alice", Content: content}, nil).Once()

	receipt, err := ledger.TrySend(context.Background(), "th1", "alice", content)
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Count)
	assert.Equal(t, MessageBudget-1, receipt.Remaining)
	threads.AssertExpectations(t)
}

func TestTrySendRejectsNonParticipant(t *testing.T) {
	threads := new(mocks.DMThreadRepositoryMock)
	ledger := NewLedger(threads)

	threads.On("GetThread", mock.Anything, "th1").Return(testThread(3), nil).Once()

	_, err := ledger.TrySend(context.Background(), "th1", "mallory", "hi")
	assert.ErrorIs(t, err, ErrForbidden)
	threads.AssertNotCalled(t, "IncrementMessageCountIfUnderBudget", mock.Anything, mock.Anything, mock.Anything)
}

func TestTrySendThreadNotFound(t *testing.T) {
	threads := new(mocks.DMThreadRepositoryMock)
	ledger := NewLedger(threads)

	threads.On("GetThread", mock.Anything, "missing").Return(models.DMThread{}, repositories.ErrThreadNotFound).Once()

	_, err := ledger.TrySend(context.Background(), "missing", "alice", "hi")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestTrySendBudgetExceeded(t *testing.T) {
	threads := new(mocks.DMThreadRepositoryMock)
	ledger := NewLedger(threads)

	threads.On("GetThread", mock.Anything, "th1").Return(testThread(MessageBudget), nil).Once()
	threads.On("IncrementMessageCountIfUnderBudget", mock.Anything, "th1", MessageBudget).Return(0, false, nil).Once()

	_, err := ledger.TrySend(context.Background(), "th1", "alice", "one more")
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.Contains(t, err.Error(), "exchange contact")
	threads.AssertNotCalled(t, "InsertMessage", mock.Anything, mock.Anything)
}

// memoryThreadStore is an in-memory DMThreadRepository with the same
// atomicity contract as the SQL implementation: the budget check and the
// increment are one operation under the store's lock.
type memoryThreadStore struct {
	mu       sync.Mutex
	threads  map[string]models.DMThread
	messages []models.DMMessage
}

func newMemoryThreadStore(threads ...models.DMThread) *memoryThreadStore {
	store := &memoryThreadStore{threads: make(map[string]models.DMThread)}
	for _, thread := range threads {
		store.threads[thread.ID] = thread
	}
	return store
}

func (s *memoryThreadStore) CreateOrGetThread(_ context.Context, eventID, viewerA, viewerB string) (models.DMThread, error) {
	panic("not used in tests")
}

func (s *memoryThreadStore) GetThread(_ context.Context, threadID string) (models.DMThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[threadID]
	if !ok {
		return models.DMThread{}, repositories.ErrThreadNotFound
	}
	return thread, nil
}

func (s *memoryThreadStore) ListMessages(_ context.Context, threadID string) ([]models.DMMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var msgs []models.DMMessage
	for _, msg := range s.messages {
		if msg.ThreadID == threadID {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

func (s *memoryThreadStore) IncrementMessageCountIfUnderBudget(_ context.Context, threadID string, budget int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[threadID]
	if !ok {
		return 0, false, repositories.ErrThreadNotFound
	}
	if thread.MessageCount >= budget {
		return 0, false, nil
	}
	thread.MessageCount++
	thread.LastActivityAt = time.Now()
	s.threads[threadID] = thread
	return thread.MessageCount, true, nil
}

func (s *memoryThreadStore) InsertMessage(_ context.Context, message models.DMMessage) (models.DMMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	message.CreatedAt = time.Now()
	s.messages = append(s.messages, message)
	return message, nil
}

func TestTrySendAcceptsExactlyTenMessages(t *testing.T) {
	store := newMemoryThreadStore(testThread(0))
	ledger := NewLedger(store)

	for i := 0; i < MessageBudget; i++ {
		receipt, err := ledger.TrySend(context.Background(), "th1", "alice", "hello")
		require.NoError(t, err, "send %d should fit the budget", i+1)
		assert.Equal(t, i+1, receipt.Count)
		assert.Equal(t, MessageBudget-i-1, receipt.Remaining)
	}

	_, err := ledger.TrySend(context.Background(), "th1", "bob", "one too many")
	assert.ErrorIs(t, err, ErrBudgetExceeded)

	msgs, err := store.ListMessages(context.Background(), "th1")
	require.NoError(t, err)
	assert.Len(t, msgs, MessageBudget)
}

func TestTrySendConcurrentReceiptsReportExactCounts(t *testing.T) {
	// Five concurrent senders from an empty thread. Each receipt must
	// carry the count its own increment produced, not the count read
	// before the race.
	store := newMemoryThreadStore(testThread(0))
	ledger := NewLedger(store)

	var wg sync.WaitGroup
	counts := make(chan int, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			receipt, err := ledger.TrySend(context.Background(), "th1", "alice", "hello")
			assert.NoError(t, err)
			counts <- receipt.Count
		}()
	}
	wg.Wait()
	close(counts)

	seen := make(map[int]bool)
	for count := range counts {
		assert.False(t, seen[count], "count %d reported twice", count)
		seen[count] = true
	}
	for want := 1; want <= 5; want++ {
		assert.True(t, seen[want], "no receipt reported count %d", want)
	}
}

func TestTrySendConcurrentAtBudgetBoundary(t *testing.T) {
	// 20 concurrent senders race against a thread one message short of
	// the cap. The conditional increment admits exactly one.
	store := newMemoryThreadStore(testThread(MessageBudget - 1))
	ledger := NewLedger(store)

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.TrySend(context.Background(), "th1", "alice", "race")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var accepted, rejected int
	for err := range results {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrBudgetExceeded):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 19, rejected)

	msgs, err := store.ListMessages(context.Background(), "th1")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	thread, err := store.GetThread(context.Background(), "th1")
	require.NoError(t, err)
	assert.Equal(t, MessageBudget, thread.MessageCount)
}
