package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DefaultsAndFallback(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, []string{DefaultKey, LastKey}, r.Keys())

	for _, key := range []string{"", DefaultKey, "unknown"} {
		records, err := r.Get(key)(canonicalBlock + "\n" + englishBlock)
		require.NoError(t, err, key)
		assert.Len(t, records, 2, key)
	}

	records, err := r.Get(LastKey)(canonicalBlock + "\n" + englishBlock)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ABC-9", records[0].WorkflowID)
}

func TestRegistry_RegisterAndClear(t *testing.T) {
	r := NewRegistry(nil)
	sentinel := errors.New("custom strategy")
	r.Register("custom", func(string) ([]Record, error) { return nil, sentinel })
	r.Register("ignored", nil)
	r.Register("", func(string) ([]Record, error) { return nil, nil })

	assert.True(t, r.Has("custom"))
	assert.False(t, r.Has("ignored"))
	_, err := r.Get("custom")("anything")
	assert.ErrorIs(t, err, sentinel)

	r.Clear()
	assert.Equal(t, []string{DefaultKey}, r.Keys())
	records, err := r.Get("custom")(canonicalBlock)
	require.NoError(t, err)
	assert.Equal(t, []Record{canonicalRecord}, records)
}
