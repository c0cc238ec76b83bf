package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"stockkeeper/internal/domain/record"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) UpsertDocuments(ctx context.Context, docs []Document) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockRepository) CountByCollection(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockRepository) ListDocuments(ctx context.Context, col record.Collection, limit, offset uint64) ([]Document, error) {
	args := m.Called(ctx, col, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Document), args.Error(1)
}

func (m *MockRepository) GetDocument(ctx context.Context, col record.Collection, key string) (*Document, error) {
	args := m.Called(ctx, col, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}

func TestService_Push(t *testing.T) {
	tests := []struct {
		name         string
		collection   record.Collection
		items        []map[string]any
		repoErr      error
		wantAccepted int
		wantRejected []int
		wantDocs     int
		wantErr      bool
	}{
		{
			name:       "all accepted",
			collection: record.Products,
			items: []map[string]any{
				{"id": "local_1", "sku": "SKU-1", "name": "Widget", "price": "9.99"},
				{"id": "local_2", "sku": "SKU-2", "name": "Bolt"},
			},
			wantAccepted: 2,
			wantDocs:     2,
		},
		{
			name:       "invalid items rejected, valid stored",
			collection: record.Movements,
			items: []map[string]any{
				{"id": "m1", "productSku": "SKU-1", "kind": "in", "quantity": 5},
				{"id": "m2", "productSku": "SKU-1", "kind": "in", "quantity": 0},
				{"id": "m3", "productSku": "SKU-1", "kind": "teleport", "quantity": 1},
			},
			wantAccepted: 1,
			wantRejected: []int{1, 2},
			wantDocs:     1,
		},
		{
			name:       "duplicate keys collapse to last",
			collection: record.Products,
			items: []map[string]any{
				{"id": "local_1", "sku": "SKU-1", "name": "Widget"},
				{"id": "local_1", "sku": "SKU-1", "name": "Widget v2"},
			},
			wantAccepted: 2,
			wantDocs:     1,
		},
		{
			name:       "nothing valid skips storage",
			collection: record.Users,
			items: []map[string]any{
				{"id": "u1"},
			},
			wantAccepted: 0,
			wantRejected: []int{0},
		},
		{
			name:       "repository failure",
			collection: record.Users,
			items: []map[string]any{
				{"id": "u1", "username": "anna"},
			},
			repoErr:  errors.New("connection reset"),
			wantDocs: 1,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tt.wantDocs > 0 {
				repo.On("UpsertDocuments", mock.Anything, mock.MatchedBy(func(docs []Document) bool {
					return len(docs) == tt.wantDocs
				})).Return(tt.repoErr)
			}
			service := NewService(repo, slog.Default())

			resp, err := service.Push(context.Background(), "device-1", tt.collection, tt.items)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection reset")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "OK", resp.Status)
			assert.Equal(t, tt.wantAccepted, resp.Accepted)

			rejected := make([]int, 0, len(resp.Rejected))
			for _, r := range resp.Rejected {
				assert.NotEmpty(t, r.Error)
				rejected = append(rejected, r.Index)
			}
			if len(tt.wantRejected) == 0 {
				assert.Empty(t, rejected)
			} else {
				assert.Equal(t, tt.wantRejected, rejected)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_PushDocumentShape(t *testing.T) {
	repo := new(MockRepository)
	var stored []Document
	repo.On("UpsertDocuments", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).([]Document)
	}).Return(nil)
	service := NewService(repo, slog.Default())

	_, err := service.Push(context.Background(), "device-1", record.Reservations, []map[string]any{
		{"id": "local_r1", "operator": "opA", "equipment": "eqA", "status": "reserved"},
	})
	require.NoError(t, err)

	require.Len(t, stored, 1)
	doc := stored[0]
	assert.Equal(t, record.Reservations, doc.Collection)
	assert.Equal(t, "opA|eqA", doc.Key)
	assert.Equal(t, "local_r1", doc.RecordID)
	assert.Equal(t, record.LocalOrigin, doc.Origin)
	assert.Equal(t, "device-1", doc.DeviceID)
	assert.Contains(t, string(doc.Data), `"operator":"opA"`)
}

func TestService_PushGuards(t *testing.T) {
	service := NewService(new(MockRepository), slog.Default())

	_, err := service.Push(context.Background(), "device-1", record.Collection("invoices"), nil)
	assert.ErrorIs(t, err, record.ErrUnknownCollection)

	items := make([]map[string]any, MaxPushItems+1)
	_, err = service.Push(context.Background(), "device-1", record.Users, items)
	assert.ErrorIs(t, err, ErrTooManyItems)
}

func TestService_Status(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CountByCollection", mock.Anything).Return(map[string]int64{"products": 3, "loans": 2}, nil)
	service := NewService(repo, slog.Default())

	resp, err := service.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.Total)
	assert.Equal(t, int64(3), resp.Collections["products"])
	assert.Equal(t, int64(0), resp.Collections["users"])
	assert.Len(t, resp.Collections, len(record.Collections()))

	failing := new(MockRepository)
	failing.On("CountByCollection", mock.Anything).Return(nil, errors.New("timeout"))
	_, err = NewService(failing, slog.Default()).Status(context.Background())
	assert.Error(t, err)
}
