package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// dateLayouts - форматы строковых дат, которые встречаются во входных данных
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DateWrapper - значение, которое умеет отдать дату (обертка временной метки удаленного хранилища)
type DateWrapper interface {
	ToDate() time.Time
}

// Codec приводит слабо типизированные записи к каноническому виду с настоящими датами.
// Невалидная дата заменяется текущим временем и только логируется.
type Codec struct {
	factory *RecordFactory
	log     *slog.Logger
	now     func() time.Time
}

// NewCodec создает новый кодек
func NewCodec(log *slog.Logger) *Codec {
	return &Codec{
		factory: NewRecordFactory(),
		log:     log.With(slog.String("component", "record_codec")),
		now:     time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Normalize приводит сырую запись к типизированной записи коллекции.
// Принимает готовую запись, map, JSON или структуру.
func (c *Codec) Normalize(col Collection, raw any) (Record, error) {
	if err := col.Validate(); err != nil {
		return nil, err
	}

	if rec, ok := raw.(Record); ok {
		if isNilRecord(rec) {
			return nil, fmt.Errorf("%w: nil record", ErrMalformedRecord)
		}
		if rec.Collection() != col {
			return nil, fmt.Errorf("%w: %s record passed to %s", ErrMalformedRecord, rec.Collection(), col)
		}
		clone, err := c.factory.Clone(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		clone.Common().ensureIdentity()
		return clone, nil
	}

	fields, err := toFields(raw)
	if err != nil {
		return nil, err
	}

	rec, err := c.factory.Create(col)
	if err != nil {
		return nil, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           rec,
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			c.dateHook(col),
			decimalHook,
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	rec.Common().ensureIdentity()
	return rec, nil
}

// Decode разбирает JSON и нормализует запись.
func (c *Codec) Decode(col Collection, data []byte) (Record, error) {
	return c.Normalize(col, json.RawMessage(data))
}

func (c *Codec) dateHook(col Collection) mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != timeType {
			return data, nil
		}

		if ts, ok := parseDate(data); ok {
			return ts, nil
		}

		now := c.now()
		c.log.Warn("invalid date replaced with current time",
			slog.String("collection", col.String()),
			slog.String("value", fmt.Sprintf("%v", data)),
		)
		return now, nil
	}
}

func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}

	switch v := data.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(strings.TrimSpace(v))
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	}
	return nil, fmt.Errorf("cannot convert %T to decimal", data)
}

// parseDate распознает три формы дат: строку, обертку временной метки и готовую дату.
// Числа трактуются как миллисекунды с начала эпохи.
func parseDate(data any) (time.Time, bool) {
	switch v := data.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case DateWrapper:
		ts := v.ToDate()
		return ts, !ts.IsZero()
	case string:
		return parseDateString(v)
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return time.Time{}, false
			}
			ms = int64(f)
		}
		return time.UnixMilli(ms), true
	case float64:
		return time.UnixMilli(int64(v)), true
	case int64:
		return time.UnixMilli(v), true
	case int:
		return time.UnixMilli(int64(v)), true
	case map[string]any:
		return parseTimestampWrapper(v)
	}
	return time.Time{}, false
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	if isDigits(s) {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return time.UnixMilli(ms), true
		}
	}
	return time.Time{}, false
}

// parseTimestampWrapper разбирает сериализованную метку вида {seconds, nanoseconds}
// (или {_seconds, _nanoseconds}).
func parseTimestampWrapper(m map[string]any) (time.Time, bool) {
	sec, ok := number(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, false
	}
	nsec, _ := number(m, "nanoseconds", "_nanoseconds")
	return time.Unix(sec, nsec), true
}

func number(m map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		raw, found := m[key]
		if !found {
			continue
		}
		switch v := raw.(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n, true
			}
		case float64:
			return int64(v), true
		case int64:
			return v, true
		case int:
			return int64(v), true
		}
	}
	return 0, false
}

// toFields приводит вход к map для декодера. Все, что не является структурой
// или объектом, считается некорректной записью.
func toFields(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil value", ErrMalformedRecord)
	case map[string]any:
		return v, nil
	case json.RawMessage:
		return decodeObject(v)
	case []byte:
		return decodeObject(v)
	}

	val := reflect.ValueOf(raw)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, fmt.Errorf("%w: nil pointer", ErrMalformedRecord)
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct && val.Kind() != reflect.Map {
		return nil, fmt.Errorf("%w: %T is not an object", ErrMalformedRecord, raw)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return decodeObject(data)
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: null object", ErrMalformedRecord)
	}
	return fields, nil
}

func isNilRecord(rec Record) bool {
	v := reflect.ValueOf(rec)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
