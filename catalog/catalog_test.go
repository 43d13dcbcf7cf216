package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogPutGetDelete(t *testing.T) {
	c := New()
	var key [32]byte
	g, err := c.Put("11111111-1111-1111-1111-111111111111", "age1pub", "AGE-SECRET-KEY-1xyz", key)
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", g.UUID)
	assert.Equal(t, 1, c.Len())

	got, err := c.Get("11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	assert.Same(t, g, got)

	c.Delete("11111111-1111-1111-1111-111111111111")
	assert.Equal(t, 0, c.Len())

	_, err = c.Get("11111111-1111-1111-1111-111111111111")
	assert.Error(t, err)
}

func TestCatalogPutRejectsIncompleteGraph(t *testing.T) {
	c := New()
	var key [32]byte
	_, err := c.Put("", "age1pub", "secret", key)
	assert.Error(t, err)

	_, err = c.Put("11111111-1111-1111-1111-111111111111", "", "secret", key)
	assert.Error(t, err)
}

func TestCancellerBroadcastsAndResets(t *testing.T) {
	c := NewCanceller()
	waiter := c.Done()

	select {
	case <-waiter:
		t.Fatal("canceller fired before Cancel was called")
	default:
	}

	c.Cancel()

	select {
	case <-waiter:
	case <-time.After(time.Second):
		t.Fatal("cancel did not close the prior Done() channel")
	}

	next := c.Done()
	select {
	case <-next:
		t.Fatal("canceller did not reset after Cancel")
	default:
	}
}
