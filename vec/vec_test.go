package vec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, Norm(v), 1e-6)

	t.Run("zero vector unchanged", func(t *testing.T) {
		z := Normalize([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, z)
	})

	t.Run("idempotent", func(t *testing.T) {
		v := Normalize([]float32{1, 2, 3})
		again := Normalize(append([]float32(nil), v...))
		for i := range v {
			assert.InDelta(t, v[i], again[i], 1e-6)
		}
	})
}

func TestCosine(t *testing.T) {
	a := Normalize([]float32{1, 0})
	b := Normalize([]float32{0, 1})
	c := Normalize([]float32{1, 1})

	got, err := Cosine(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-6)

	got, err = Cosine(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-6)

	got, err = Cosine(a, c)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2/2, got, 1e-6)

	_, err = Cosine(a, []float32{1, 2, 3})
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	v := []float32{0.1, -2.5, 42, 0}
	decoded, err := Decode(Encode(v))
	require.NoError(t, err)
	assert.Equal(t, v, decoded)

	_, err = Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}
