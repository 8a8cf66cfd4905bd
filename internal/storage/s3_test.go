package storage

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("eeg")

	parts := strings.Split(key, "/")
	require.Len(t, parts, 6)
	assert.Equal(t, "screenings", parts[0])
	assert.Equal(t, "eeg", parts[1])

	now := time.Now()
	assert.Equal(t, fmt.Sprintf("%d", now.Year()), parts[2])
	assert.Equal(t, fmt.Sprintf("%02d", now.Month()), parts[3])
	assert.Equal(t, fmt.Sprintf("%02d", now.Day()), parts[4])

	_, err := uuid.Parse(parts[5])
	assert.NoError(t, err, "key suffix must be a UUID")
}

func TestObjectKey_IsUnique(t *testing.T) {
	assert.NotEqual(t, ObjectKey("video"), ObjectKey("video"))
}
