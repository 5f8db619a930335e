package users

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mdrscore/client/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	in := &User{ID: "1", UserName: "alice", Email: "a@x.io", Profile: map[string]json.RawMessage{"bio": json.RawMessage(`"x"`)}}
	_, err := r.Create(ctx, in)
	require.NoError(t, err)

	in.Profile["bio"] = json.RawMessage(`"changed"`)
	got, err := r.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.JSONEq(t, `"x"`, string(got.Profile["bio"]))

	got.Email = "b@x.io"
	again, err := r.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", again.Email)
}

func TestMemoryRepository_UpdateConflictsAndMissing(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	_, err := r.Create(ctx, &User{ID: "1", UserName: "alice", Email: "a@x.io"})
	require.NoError(t, err)
	_, err = r.Create(ctx, &User{ID: "2", UserName: "bob", Email: "b@x.io"})
	require.NoError(t, err)

	assert.ErrorIs(t, r.Update(ctx, &User{ID: "2", UserName: "bob", Email: "A@X.IO"}), shared.ErrEmailTaken)
	assert.NoError(t, r.Update(ctx, &User{ID: "2", UserName: "bob", Email: "b@x.io"}), "own values never conflict")
	assert.ErrorIs(t, r.Update(ctx, &User{ID: "3"}), shared.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "3"), shared.ErrNotFound)

	_, err = r.GetByVerifyToken(ctx, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
