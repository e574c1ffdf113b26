package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"event-photo-service/internal/identity"
	"event-photo-service/internal/models"
	"event-photo-service/internal/repositories"
)

type EventRepositoryMock struct {
	mock.Mock
}

func (m *EventRepositoryMock) CreateEvent(ctx context.Context, event models.Event) (models.Event, error) {
	args := m.Called(ctx, event)
	var created models.Event
	if val := args.Get(0); val != nil {
		created = val.(models.Event)
	}
	return created, args.Error(1)
}

func (m *EventRepositoryMock) GetEvent(ctx context.Context, eventID string) (models.Event, error) {
	args := m.Called(ctx, eventID)
	var event models.Event
	if val := args.Get(0); val != nil {
		event = val.(models.Event)
	}
	return event, args.Error(1)
}

type PostRepositoryMock struct {
	mock.Mock
}

func (m *PostRepositoryMock) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	args := m.Called(ctx, post)
	var created models.Post
	if val := args.Get(0); val != nil {
		created = val.(models.Post)
	}
	return created, args.Error(1)
}

func (m *PostRepositoryMock) GetPostsForEvent(ctx context.Context, eventID string) ([]models.Post, error) {
	args := m.Called(ctx, eventID)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Error(1)
}

type DMThreadRepositoryMock struct {
	mock.Mock
}

func (m *DMThreadRepositoryMock) CreateOrGetThread(ctx context.Context, eventID, viewerA, viewerB string) (models.DMThread, error) {
	args := m.Called(ctx, eventID, viewerA, viewerB)
	var thread models.DMThread
	if val := args.Get(0); val != nil {
		thread = val.(models.DMThread)
	}
	return thread, args.Error(1)
}

func (m *DMThreadRepositoryMock) GetThread(ctx context.Context, threadID string) (models.DMThread, error) {
	args := m.Called(ctx, threadID)
	var thread models.DMThread
	if val := args.Get(0); val != nil {
		thread = val.(models.DMThread)
	}
	return thread, args.Error(1)
}

func (m *DMThreadRepositoryMock) ListMessages(ctx context.Context, threadID string) ([]models.DMMessage, error) {
	args := m.Called(ctx, threadID)
	var msgs []models.DMMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.DMMessage)
	}
	return msgs, args.Error(1)
}

func (m *DMThreadRepositoryMock) IncrementMessageCountIfUnderBudget(ctx context.Context, threadID string, budget int) (int, bool, error) {
	args := m.Called(ctx, threadID, budget)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *DMThreadRepositoryMock) InsertMessage(ctx context.Context, message models.DMMessage) (models.DMMessage, error) {
	args := m.Called(ctx, message)
	var created models.DMMessage
	if val := args.Get(0); val != nil {
		created = val.(models.DMMessage)
	}
	return created, args.Error(1)
}

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) Resolve(ctx context.Context, credential string) (string, error) {
	args := m.Called(ctx, credential)
	return args.String(0), args.Error(1)
}

var _ repositories.EventRepository = (*EventRepositoryMock)(nil)
var _ repositories.PostRepository = (*PostRepositoryMock)(nil)
var _ repositories.DMThreadRepository = (*DMThreadRepositoryMock)(nil)
var _ identity.Resolver = (*ResolverMock)(nil)
