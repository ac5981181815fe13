package consumer

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/KarpelesLab/pjson"
)

// Time is a time.Time field type for objects. It accepts the common ways
// APIs encode timestamps: RFC 3339 strings, unix seconds (integer or
// fractional) and {"unix":..,"us":..} objects. It encodes as RFC 3339.
type Time struct {
	time.Time
}

type timestampInternal struct {
	Unix int64 `json:"unix"` // 1597242491
	Usec int64 `json:"us"`   // 747497
}

func (u *Time) UnmarshalJSON(data []byte) error {
	return u.UnmarshalContextJSON(context.Background(), data)
}

func (u *Time) UnmarshalContextJSON(ctx context.Context, data []byte) error {
	data = bytes.TrimSpace(data)
	// Ignore null, like in the main JSON package.
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := pjson.UnmarshalContext(ctx, data, &s); err != nil {
			return err
		}
		if s == "" {
			u.Time = time.Time{}
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		u.Time = t
	case '{':
		var sd timestampInternal
		if err := pjson.UnmarshalContext(ctx, data, &sd); err != nil {
			return err
		}
		u.Time = time.Unix(sd.Unix, sd.Usec*1000) // *1000 means µs → ns
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", data, err)
		}
		sec := int64(f)
		u.Time = time.Unix(sec, int64((f-float64(sec))*1e9))
	}
	return nil
}

func (u Time) MarshalJSON() ([]byte, error) {
	return u.MarshalContextJSON(context.Background())
}

func (u Time) MarshalContextJSON(ctx context.Context) ([]byte, error) {
	if u.IsZero() {
		return []byte("null"), nil
	}
	return pjson.MarshalContext(ctx, u.Format(time.RFC3339Nano))
}
