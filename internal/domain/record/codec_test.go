package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type firestoreStamp struct {
	at time.Time
}

func (s firestoreStamp) ToDate() time.Time {
	return s.at
}

func fixedCodec(now time.Time) *Codec {
	return NewCodec(slog.Default()).WithClock(func() time.Time { return now })
}

func TestCodec_Normalize_Dates(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	want := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		value    any
		expected time.Time
	}{
		{
			name:     "rfc3339 string",
			value:    "2024-03-15T08:30:00Z",
			expected: want,
		},
		{
			name:     "date only string",
			value:    "2024-03-15",
			expected: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "epoch millis",
			value:    float64(want.UnixMilli()),
			expected: want,
		},
		{
			name:     "timestamp wrapper",
			value:    map[string]any{"seconds": float64(want.Unix()), "nanoseconds": float64(0)},
			expected: want,
		},
		{
			name:     "underscored timestamp wrapper",
			value:    map[string]any{"_seconds": float64(want.Unix()), "_nanoseconds": float64(0)},
			expected: want,
		},
		{
			name:     "toDate capability",
			value:    firestoreStamp{at: want},
			expected: want,
		},
		{
			name:     "real date",
			value:    want,
			expected: want,
		},
		{
			name:     "garbage string falls back to now",
			value:    "not a date",
			expected: now,
		},
		{
			name:     "empty string falls back to now",
			value:    "",
			expected: now,
		},
		{
			name:     "unsupported type falls back to now",
			value:    true,
			expected: now,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := fixedCodec(now)

			rec, err := codec.Normalize(Movements, map[string]any{
				"id":         "mv-1",
				"productSku": "SKU-1",
				"kind":       "in",
				"quantity":   3,
				"date":       tt.value,
			})

			require.NoError(t, err)
			mv := rec.(*Movement)
			assert.True(t, tt.expected.Equal(mv.Date), "got %v, want %v", mv.Date, tt.expected)
		})
	}
}

func TestCodec_Normalize_NestedScheduleDates(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	codec := fixedCodec(now)

	raw := []byte(`{
		"id": "sch-1",
		"code": "INV-01",
		"scheduledAt": "2024-04-01T09:00:00Z",
		"items": [
			{
				"sku": "SKU-1",
				"expected": 10,
				"counted": 9,
				"countedAt": {"seconds": 1711962000, "nanoseconds": 0},
				"validations": [
					{"by": "anna", "status": "ok", "validatedAt": "broken"}
				]
			}
		]
	}`)

	rec, err := codec.Decode(Schedules, raw)
	require.NoError(t, err)

	sch := rec.(*Schedule)
	require.NotNil(t, sch.ScheduledAt)
	assert.Equal(t, time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC), sch.ScheduledAt.UTC())
	require.Len(t, sch.Items, 1)
	require.NotNil(t, sch.Items[0].Counted)
	assert.Equal(t, 9, *sch.Items[0].Counted)
	require.NotNil(t, sch.Items[0].CountedAt)
	assert.Equal(t, int64(1711962000), sch.Items[0].CountedAt.Unix())
	require.Len(t, sch.Items[0].Validations, 1)
	require.NotNil(t, sch.Items[0].Validations[0].ValidatedAt)
	assert.True(t, now.Equal(*sch.Items[0].Validations[0].ValidatedAt))
}

func TestCodec_Normalize_Identity(t *testing.T) {
	codec := NewCodec(slog.Default())

	tests := []struct {
		name       string
		raw        map[string]any
		wantOrigin Origin
		wantLocal  bool
	}{
		{
			name:       "missing id is minted locally",
			raw:        map[string]any{"sku": "SKU-1", "name": "Widget"},
			wantOrigin: LocalOrigin,
			wantLocal:  true,
		},
		{
			name:       "local prefix",
			raw:        map[string]any{"id": "local_1001", "sku": "SKU-1", "name": "Widget"},
			wantOrigin: LocalOrigin,
		},
		{
			name:       "numeric timestamp id",
			raw:        map[string]any{"id": "1715000000000", "sku": "SKU-1", "name": "Widget"},
			wantOrigin: LocalOrigin,
		},
		{
			name:       "remote id",
			raw:        map[string]any{"id": "aZ3kq9", "sku": "SKU-1", "name": "Widget"},
			wantOrigin: RemoteOrigin,
		},
		{
			name:       "explicit tag wins over id shape",
			raw:        map[string]any{"id": "aZ3kq9", "origin": "local", "sku": "SKU-1", "name": "Widget"},
			wantOrigin: LocalOrigin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := codec.Normalize(Products, tt.raw)
			require.NoError(t, err)

			id := rec.Identity()
			assert.Equal(t, tt.wantOrigin, id.Origin)
			assert.NotEmpty(t, id.ID)
			if tt.wantLocal {
				assert.Contains(t, id.ID, LocalIDPrefix)
			}
		})
	}
}

func TestCodec_Normalize_Product(t *testing.T) {
	codec := NewCodec(slog.Default())

	rec, err := codec.Decode(Products, []byte(`{"id":"local_1","sku":"SKU-1","name":"Widget","stock":"7","price":12.5}`))
	require.NoError(t, err)

	p := rec.(*Product)
	assert.Equal(t, "SKU-1", p.Key())
	assert.Equal(t, 7, p.Stock)
	assert.True(t, decimal.RequireFromString("12.5").Equal(p.Price))
}

func TestCodec_Normalize_Errors(t *testing.T) {
	codec := NewCodec(slog.Default())

	tests := []struct {
		name    string
		col     Collection
		raw     any
		wantErr error
	}{
		{name: "nil", col: Products, raw: nil, wantErr: ErrMalformedRecord},
		{name: "string", col: Products, raw: "hello", wantErr: ErrMalformedRecord},
		{name: "number", col: Products, raw: 42, wantErr: ErrMalformedRecord},
		{name: "json array", col: Products, raw: json.RawMessage(`[1,2]`), wantErr: ErrMalformedRecord},
		{name: "json null", col: Products, raw: []byte(`null`), wantErr: ErrMalformedRecord},
		{name: "unknown collection", col: Collection("widgets"), raw: map[string]any{}, wantErr: ErrUnknownCollection},
		{name: "wrong record type", col: Loans, raw: &Product{SKU: "x"}, wantErr: ErrMalformedRecord},
		{name: "bad number", col: Movements, raw: map[string]any{"quantity": "many"}, wantErr: ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Normalize(tt.col, tt.raw)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCodec_Normalize_CopiesTypedRecord(t *testing.T) {
	codec := NewCodec(slog.Default())
	in := &Reservation{Operator: "op", Equipment: "eq"}

	out, err := codec.Normalize(Reservations, in)

	require.NoError(t, err)
	assert.NotSame(t, in, out)
	assert.Equal(t, LocalOrigin, out.Identity().Origin)
	assert.NotEmpty(t, out.Identity().ID)
	assert.Equal(t, "op", out.(*Reservation).Operator)

	assert.Empty(t, in.ID, "caller record must not get an identity")
	assert.Empty(t, in.Origin)
}

func TestRecordFactory_Clone_KeepsMintedIdentity(t *testing.T) {
	codec := NewCodec(slog.Default())
	minted, err := codec.Normalize(Products, map[string]any{"sku": "SKU-1", "name": "Widget"})
	require.NoError(t, err)

	clone, err := NewRecordFactory().Clone(minted)
	require.NoError(t, err)

	previous := &Product{Base: Base{ID: "srv-1", Origin: RemoteOrigin}, SKU: "SKU-1", Name: "Old"}
	merged := clone.MergeWith(previous)
	assert.Equal(t, "srv-1", merged.Identity().ID)
	assert.NotEqual(t, "srv-1", minted.Identity().ID)
}
