package series

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func TestNew_Validation(t *testing.T) {
	_, err := New("x", []time.Time{day(0)}, []float64{1, 2})
	assert.Error(t, err)

	_, err = New("x", nil, nil)
	assert.Error(t, err)

	_, err = New("x", []time.Time{day(1), day(0)}, []float64{1, 2})
	assert.Error(t, err, "timestamps must be strictly increasing")

	s, err := New("x", []time.Time{day(0), day(1)}, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 24*time.Hour, s.Step())
}

func TestAlignTo(t *testing.T) {
	s, err := New("rain", []time.Time{day(0), day(2)}, []float64{5, 7})
	require.NoError(t, err)

	base := []time.Time{day(0), day(1), day(2), day(3)}
	a := s.AlignTo(base)
	assert.Equal(t, []float64{5, 0, 7, 0}, a.V)
	assert.Equal(t, base, a.T)
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{
			name:    "with header",
			input:   "time,head\n2024-01-01,1.5\n2024-01-02,2.5\n",
			wantLen: 2,
		},
		{
			name:    "no header rfc3339",
			input:   "2024-01-01T00:00:00Z,1.5\n2024-01-02T00:00:00Z,2.5\n",
			wantLen: 2,
		},
		{
			name:    "datetime layout",
			input:   "2024-01-01 06:00:00,1.5\n2024-01-01 12:00:00,2.5\n",
			wantLen: 2,
		},
		{
			name:    "bad value",
			input:   "2024-01-01,abc\n",
			wantErr: true,
		},
		{
			name:    "bad timestamp mid-file",
			input:   "2024-01-01,1.0\nnot-a-date,2.0\n",
			wantErr: true,
		},
		{
			name:    "single column",
			input:   "2024-01-01\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseCSV("test", strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, s.Len())
		})
	}
}

func TestCSV_RoundTrip(t *testing.T) {
	s, err := New("head", []time.Time{day(0), day(1)}, []float64{1.25, -3.5})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(s, &buf))

	got, err := ParseCSV("head", &buf)
	require.NoError(t, err)
	assert.Equal(t, s.V, got.V)
	assert.True(t, s.T[0].Equal(got.T[0]))
	assert.True(t, s.T[1].Equal(got.T[1]))
}
