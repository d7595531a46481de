package memorystorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/secondbrain/internal/models"
	"github.com/patric-chuzhbe/secondbrain/internal/user"
)

func TestUsers(t *testing.T) {
	theStorage, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	aliceID, err := theStorage.CreateUser(ctx, &user.User{Username: "alice", PasswordHash: "hash-a"})
	require.NoError(t, err)
	require.NotEmpty(t, aliceID)

	_, err = theStorage.CreateUser(ctx, &user.User{Username: "alice", PasswordHash: "hash-b"})
	assert.ErrorIs(t, err, models.ErrUsernameTaken)

	usr, err := theStorage.GetUserByID(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, "alice", usr.Username)
	assert.Equal(t, "hash-a", usr.PasswordHash)

	usr, err = theStorage.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, aliceID, usr.ID)

	// Absent users come back with an empty ID, not an error.
	usr, err = theStorage.GetUserByID(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Empty(t, usr.ID)

	usr, err = theStorage.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, usr.ID)
}

func TestContent(t *testing.T) {
	theStorage, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	aliceID, err := theStorage.CreateUser(ctx, &user.User{Username: "alice"})
	require.NoError(t, err)
	bobID, err := theStorage.CreateUser(ctx, &user.User{Username: "bob"})
	require.NoError(t, err)

	item := &models.Content{
		ID:     "content-1",
		Title:  "An item",
		Link:   "https://example.com",
		Type:   models.ContentTypeLink,
		Tags:   []string{"go"},
		UserID: aliceID,
	}
	require.NoError(t, theStorage.InsertContent(ctx, item))

	contents, err := theStorage.GetUserContent(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "content-1", contents[0].ID)

	contents, err = theStorage.GetUserContent(ctx, bobID)
	require.NoError(t, err)
	assert.Empty(t, contents)

	deleted, err := theStorage.DeleteContent(ctx, "content-1", bobID)
	require.NoError(t, err)
	assert.False(t, deleted, "a foreign delete must not match")

	deleted, err = theStorage.DeleteContent(ctx, "content-1", aliceID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = theStorage.DeleteContent(ctx, "content-1", aliceID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestShareLinks(t *testing.T) {
	theStorage, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	aliceID, err := theStorage.CreateUser(ctx, &user.User{Username: "alice"})
	require.NoError(t, err)
	bobID, err := theStorage.CreateUser(ctx, &user.User{Username: "bob"})
	require.NoError(t, err)

	hash, err := theStorage.UpsertShareLink(ctx, aliceID, "alicehash1")
	require.NoError(t, err)
	assert.Equal(t, "alicehash1", hash)

	// A second upsert keeps the stored hash and ignores the fresh draw.
	hash, err = theStorage.UpsertShareLink(ctx, aliceID, "alicehash2")
	require.NoError(t, err)
	assert.Equal(t, "alicehash1", hash)

	// Another user drawing an occupied hash collides.
	_, err = theStorage.UpsertShareLink(ctx, bobID, "alicehash1")
	assert.ErrorIs(t, err, models.ErrHashCollision)

	userID, found, err := theStorage.FindUserIDByHash(ctx, "alicehash1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, aliceID, userID)

	require.NoError(t, theStorage.DeleteShareLink(ctx, aliceID))

	_, found, err = theStorage.FindUserIDByHash(ctx, "alicehash1")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent link is a no-op.
	assert.NoError(t, theStorage.DeleteShareLink(ctx, aliceID))
}

func TestCountersSnapshotAndPing(t *testing.T) {
	theStorage, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	aliceID, err := theStorage.CreateUser(ctx, &user.User{Username: "alice"})
	require.NoError(t, err)
	require.NoError(t, theStorage.InsertContent(ctx, &models.Content{ID: "content-1", UserID: aliceID}))
	_, err = theStorage.UpsertShareLink(ctx, aliceID, "alicehash1")
	require.NoError(t, err)

	users, err := theStorage.GetNumberOfUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)

	contents, err := theStorage.GetNumberOfContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), contents)

	shareLinks, err := theStorage.GetNumberOfShareLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), shareLinks)

	snapshot := theStorage.SnapshotCache()

	restored, err := New()
	require.NoError(t, err)
	restored.RestoreCache(snapshot)

	usr, err := restored.GetUserByID(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, "alice", usr.Username)

	userID, found, err := restored.FindUserIDByHash(ctx, "alicehash1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, aliceID, userID)

	assert.NoError(t, theStorage.Ping(ctx))
	assert.NoError(t, theStorage.Close())
}
