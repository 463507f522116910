package sizing

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOverflow = errors.New("overflow")

func TestToInt64(t *testing.T) {
	t.Parallel()

	n, err := ToInt64(42, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = ToInt64(math.MaxUint64, errOverflow)
	assert.ErrorIs(t, err, errOverflow)
}

func TestReadAllWithLimit(t *testing.T) {
	t.Parallel()

	data := []byte("0123456789")

	tests := []struct {
		name    string
		limit   uint64
		wantErr bool
	}{
		{name: "unlimited", limit: 0},
		{name: "exact", limit: 10},
		{name: "larger", limit: 64},
		{name: "too small", limit: 9, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ReadAllWithLimit(bytes.NewReader(data), tt.limit, errOverflow)
			if tt.wantErr {
				assert.ErrorIs(t, err, errOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}
