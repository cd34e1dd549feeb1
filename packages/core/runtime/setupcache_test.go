package runtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupCacheComputesOnce(t *testing.T) {
	c := NewSetupCache()
	var calls int32

	for i := 0; i < 3; i++ {
		v, err := c.Resolve("k", func() (any, error) {
			atomic.AddInt32(&calls, 1)
			return "value", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.EqualValues(t, 1, calls)
}

func TestSetupCacheKeysAreIndependent(t *testing.T) {
	c := NewSetupCache()
	a, _ := c.Resolve("a", func() (any, error) { return 1, nil })
	b, _ := c.Resolve("b", func() (any, error) { return 2, nil })
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestSetupCacheCachesErrors(t *testing.T) {
	c := NewSetupCache()
	var calls int32
	compute := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("boom")
	}

	_, err := c.Resolve("k", compute)
	require.Error(t, err)
	_, err = c.Resolve("k", compute)
	require.Error(t, err)
	assert.EqualValues(t, 1, calls, "failed computations do not retry")
}

func TestSetupCacheSingleInFlight(t *testing.T) {
	c := NewSetupCache()
	var calls int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Resolve("k", func() (any, error) {
				atomic.AddInt32(&calls, 1)
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, calls)
}
