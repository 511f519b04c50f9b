package visit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindowBound(t *testing.T) {
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "full seconds", value: "2021-01-01T00:00:00", want: time.Date(2021, 1, 1, 0, 0, 0, 0, loc)},
		{name: "trailing Z stripped", value: "2021-01-01T00:00:00Z", want: time.Date(2021, 1, 1, 0, 0, 0, 0, loc)},
		{name: "fractional seconds", value: "2021-06-15T12:30:45.5", want: time.Date(2021, 6, 15, 12, 30, 45, 500000000, loc)},
		{name: "minutes only", value: "2021-06-15T12:30", want: time.Date(2021, 6, 15, 12, 30, 0, 0, loc)},
		{name: "date only", value: "2021-06-15", want: time.Date(2021, 6, 15, 0, 0, 0, 0, loc)},
		{name: "garbage", value: "yesterday", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindowBound(tt.value, loc)
			if tt.wantErr {
				require.Error(t, err)
				var tErr *TimeParseError
				assert.True(t, errors.As(err, &tErr))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestParseWindow(t *testing.T) {
	loc := time.UTC

	w, err := ParseWindow("2021-01-01T00:00:00", "2021-01-01T00:00:00", loc)
	require.NoError(t, err)
	// equal bounds form a valid instant-sized window
	assert.False(t, w.Inverted())
	assert.True(t, w.Lower.Equal(w.Upper))

	w, err = ParseWindow("2021-02-01T00:00:00", "2021-01-01T00:00:00", loc)
	require.NoError(t, err)
	assert.True(t, w.Inverted())

	_, err = ParseWindow("nope", "2021-01-01T00:00:00", loc)
	assert.Error(t, err)
	_, err = ParseWindow("2021-01-01T00:00:00", "nope", loc)
	assert.Error(t, err)
}
