package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockkeeper/internal/domain/session"
	"stockkeeper/internal/utils/logger"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, req session.RegisterRequest) (string, string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockService) Validate(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func TestHandler_register(t *testing.T) {
	req := session.RegisterRequest{Name: "scanner-1", Secret: "warehouse-secret"}

	tests := []struct {
		name       string
		setupMock  func(m *MockService)
		wantStatus string
		wantError  string
		wantToken  string
	}{
		{
			name: "registered",
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, req).Return("dev-1", "dev-1.secret", nil)
			},
			wantStatus: "OK",
			wantToken:  "dev-1.secret",
		},
		{
			name: "wrong secret",
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, req).Return("", "", session.ErrUnauthorized)
			},
			wantStatus: "Error",
			wantError:  session.ErrUnauthorized.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := NewHandler(svc, logger.Discard(), nil)

			out, err := h.register(context.Background(), &registerInput{Body: req})

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, out.Body.Status)
			assert.Equal(t, tt.wantError, out.Body.Error)
			assert.Equal(t, tt.wantToken, out.Body.Token)
			svc.AssertExpectations(t)
		})
	}
}
