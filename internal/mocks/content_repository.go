package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"kumpul/internal/domain"
)

type PostRepository struct {
	mock.Mock
}

func (m *PostRepository) post(args mock.Arguments) (*domain.Post, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *PostRepository) Create(ctx context.Context, post *domain.Post, mediaIDs []uuid.UUID) error {
	args := m.Called(ctx, post, mediaIDs)
	return args.Error(0)
}

func (m *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return m.post(m.Called(ctx, id))
}

func (m *PostRepository) GetVisible(ctx context.Context, id, viewerID uuid.UUID) (*domain.Post, error) {
	return m.post(m.Called(ctx, id, viewerID))
}

func (m *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *PostRepository) ListByAuthor(ctx context.Context, authorID, viewerID uuid.UUID, params domain.PaginationParams) ([]domain.Post, int64, error) {
	args := m.Called(ctx, authorID, viewerID, params)
	return args.Get(0).([]domain.Post), args.Get(1).(int64), args.Error(2)
}

func (m *PostRepository) Feed(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.Post, int64, error) {
	args := m.Called(ctx, userID, params)
	return args.Get(0).([]domain.Post), args.Get(1).(int64), args.Error(2)
}

func (m *PostRepository) ListBookmarked(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.Post, int64, error) {
	args := m.Called(ctx, userID, params)
	return args.Get(0).([]domain.Post), args.Get(1).(int64), args.Error(2)
}

func (m *PostRepository) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).(int64), args.Error(1)
}

// PairRepository covers the like, view and bookmark repositories, which all
// key on (post, user).
type PairRepository struct {
	mock.Mock
}

func (m *PairRepository) Create(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *PairRepository) Delete(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *PairRepository) Exists(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *PairRepository) CountByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(int64), args.Error(1)
}

type CommentRepository struct {
	mock.Mock
}

func (m *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *CommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *CommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CommentRepository) ListByPost(ctx context.Context, postID uuid.UUID, params domain.PaginationParams) ([]domain.Comment, int64, error) {
	args := m.Called(ctx, postID, params)
	return args.Get(0).([]domain.Comment), args.Get(1).(int64), args.Error(2)
}

type MediaRepository struct {
	mock.Mock
}

func (m *MediaRepository) Create(ctx context.Context, media *domain.Media) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Media), args.Error(1)
}

func (m *MediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MediaRepository) ListByPosts(ctx context.Context, postIDs []uuid.UUID) ([]domain.Media, error) {
	args := m.Called(ctx, postIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Media), args.Error(1)
}
