package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"kumpul/internal/domain"
)

// Emitter records emitted notifications synchronously.
type Emitter struct {
	mock.Mock

	mu      sync.Mutex
	emitted []domain.CreateNotificationInput
}

func (m *Emitter) Emit(ctx context.Context, input domain.CreateNotificationInput) {
	m.mu.Lock()
	m.emitted = append(m.emitted, input)
	m.mu.Unlock()
	m.Called(ctx, input)
}

func (m *Emitter) Emitted() []domain.CreateNotificationInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CreateNotificationInput(nil), m.emitted...)
}
