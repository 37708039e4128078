package kv

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	s := New[string, int]()

	s.Set("foo", 42)
	val, ok := s.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, 42, val)

	_, ok = s.Get("bar")
	assert.False(t, ok)
}

func TestStore_Delete(t *testing.T) {
	s := New[string, string]()
	s.Set("key", "value")

	s.Delete("key")

	_, ok := s.Get("key")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_LoadCachesSuccess(t *testing.T) {
	s := New[string, string]()
	calls := 0
	load := func() (string, error) {
		calls++
		return "content", nil
	}

	v, err := s.Load("main:README.md", load)
	require.NoError(t, err)
	assert.Equal(t, "content", v)

	v, err = s.Load("main:README.md", load)
	require.NoError(t, err)
	assert.Equal(t, "content", v)
	assert.Equal(t, 1, calls)
}

func TestStore_LoadDoesNotCacheErrors(t *testing.T) {
	s := New[string, int]()
	calls := 0

	_, err := s.Load("k", func() (int, error) {
		calls++
		return 0, errors.New("unavailable")
	})
	require.Error(t, err)

	v, err := s.Load("k", func() (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)
}

func TestStore_Concurrent(t *testing.T) {
	s := New[int, int]()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Set(n, n*2)
			_, _ = s.Get(n)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}
