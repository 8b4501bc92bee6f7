//go:build !sqlite

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStoreIsMemoryWithoutSQLite(t *testing.T) {
	store, err := NewStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore("sqlite", "journal.db")
	assert.ErrorContains(t, err, "-tags sqlite")
}
