package trace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "abc-123")

	id, ok := IDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc-123", id)
	assert.Equal(t, "abc-123", EnsureTraceID(ctx))
}

func TestIDFromContextEmpty(t *testing.T) {
	_, ok := IDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = IDFromContext(WithTraceID(context.Background(), ""))
	assert.False(t, ok)
}

func TestEnsureTraceIDGeneratesUUID(t *testing.T) {
	id := EnsureTraceID(context.Background())
	_, err := uuid.Parse(id)
	require.NoError(t, err)
}

func TestEnsure(t *testing.T) {
	ctx, id := Ensure(context.Background())
	got, ok := IDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)

	same, sameID := Ensure(ctx)
	assert.Equal(t, ctx, same)
	assert.Equal(t, id, sameID)
}
