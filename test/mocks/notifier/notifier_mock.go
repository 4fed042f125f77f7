package notifier

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID int64, text string) error {
	args := m.Called(ctx, userID, text)
	return args.Error(0)
}
