package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00:00", 0, false},
		{"00:01:40", 100, false},
		{"01:02:03", 3723, false},
		{"26:00:00", 93600, false},
		{" 00:00:05 ", 5, false},
		{"1:2:3", 3723, false},
		{"00:60:00", 0, true},
		{"00:00:60", 0, true},
		{"00:00", 0, true},
		{"aa:00:00", 0, true},
		{"-1:00:00", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err, "ParseClock(%q) = %d", tt.in, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("00:01:00", "00:02:00")
	require.NoError(t, err)
	assert.Equal(t, 60.0, w.StartSeconds)
	assert.Equal(t, 120.0, w.EndSeconds)

	_, err = ParseWindow("00:02:00", "00:01:00")
	assert.ErrorIs(t, err, ErrInvalidWindow, "reversed window")
	_, err = ParseWindow("00:01:00", "00:01:00")
	assert.ErrorIs(t, err, ErrInvalidWindow, "empty window")
	_, err = ParseWindow("bad", "00:01:00")
	assert.ErrorIs(t, err, ErrInvalidClock, "malformed start")
}

func TestWindowContains(t *testing.T) {
	w := Window{StartSeconds: 10, EndSeconds: 20}
	cases := map[float64]bool{9.99: false, 10: true, 15: true, 20: true, 20.01: false}
	for off, want := range cases {
		assert.Equal(t, want, w.Contains(off), "Contains(%v)", off)
	}
	assert.Equal(t, 10.0, w.Length())
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00:00"},
		{30, "0:00:30"},
		{90.7, "0:01:30"},
		{3723, "1:02:03"},
		{-5, "-0:00:05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.in), "FormatClock(%v)", tt.in)
	}
}
