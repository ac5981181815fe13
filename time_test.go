package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTimeUnmarshalJSON tests the accepted timestamp encodings
func TestTimeUnmarshalJSON(t *testing.T) {
	want := time.Date(2023, 5, 15, 14, 50, 45, 0, time.UTC)

	tests := []struct {
		name string
		json []byte
		want time.Time
	}{
		{"unix object", []byte(`{"unix":1684162245,"us":0}`), want},
		{"unix object with micro seconds", []byte(`{"unix":1684162245,"us":500000}`), want.Add(500 * time.Millisecond)},
		{"unix seconds", []byte(`1684162245`), want},
		{"fractional unix seconds", []byte(`1684162245.5`), want.Add(500 * time.Millisecond)},
		{"rfc3339", []byte(`"2023-05-15T14:50:45Z"`), want},
		{"rfc3339 with offset", []byte(`"2023-05-15T23:50:45+09:00"`), want},
		{"null", []byte(`null`), time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tm Time
			require.NoError(t, tm.UnmarshalJSON(tt.json))
			assert.True(t, tt.want.Equal(tm.Time), "UnmarshalJSON(%s) = %s, want %s", tt.json, tm.Time, tt.want)
		})
	}
}

func TestTimeUnmarshalInvalid(t *testing.T) {
	var tm Time
	assert.Error(t, tm.UnmarshalJSON([]byte(`"yesterday"`)))
	assert.Error(t, tm.UnmarshalJSON([]byte(`true`)))
}

// TestTimeMarshalJSON tests the MarshalJSON method of Time
func TestTimeMarshalJSON(t *testing.T) {
	tm := Time{time.Date(2023, 5, 15, 14, 30, 45, 0, time.UTC)}

	data, err := tm.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2023-05-15T14:30:45Z"`, string(data))

	data, err = Time{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `null`, string(data))
}

// TestTimeContextJSON tests the context-based JSON methods round trip
func TestTimeContextJSON(t *testing.T) {
	tm := Time{time.Date(2023, 5, 15, 14, 30, 45, 123000, time.UTC)}
	ctx := context.Background()

	data, err := tm.MarshalContextJSON(ctx)
	require.NoError(t, err)

	var tm2 Time
	require.NoError(t, tm2.UnmarshalContextJSON(ctx, data))
	assert.True(t, tm.Equal(tm2.Time))

	require.NoError(t, tm2.UnmarshalContextJSON(ctx, []byte(`null`)))
}
