package memo

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_GetOrCompute(t *testing.T) {
	t.Parallel()

	table := New[string, int]()
	calls := 0
	compute := func(k string) (int, error) {
		calls++
		return len(k), nil
	}

	v, err := table.GetOrCompute("hello", compute)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = table.GetOrCompute("hello", compute)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, table.Len())
}

func TestTable_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	table := New[int, string]()
	boom := errors.New("boom")

	_, err := table.GetOrCompute(1, func(int) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)

	_, ok := table.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())
}

func TestTable_ConcurrentMisses(t *testing.T) {
	t.Parallel()

	table := New[int, int]()
	var calls atomic.Int32

	var wg sync.WaitGroup
	results := make([]int, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := table.GetOrCompute(7, func(k int) (int, error) {
				calls.Add(1)
				return k * 6, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 42, v)
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.Equal(t, 1, table.Len())
}
