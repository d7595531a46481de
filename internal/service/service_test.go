package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/secondbrain/internal/db/memorystorage"
	"github.com/patric-chuzhbe/secondbrain/internal/mockstorage"
	"github.com/patric-chuzhbe/secondbrain/internal/models"
	"github.com/patric-chuzhbe/secondbrain/internal/user"
)

func newMemoryService(t *testing.T) (*Service, *memorystorage.MemoryStorage) {
	db, err := memorystorage.New()
	require.NoError(t, err)

	return New(db), db
}

func TestSignUpAndAuthenticate(t *testing.T) {
	theService, _ := newMemoryService(t)
	ctx := context.Background()

	err := theService.SignUp(ctx, "alice", "secret123")
	require.NoError(t, err)

	t.Run("duplicate username", func(t *testing.T) {
		err := theService.SignUp(ctx, "alice", "another-secret")
		assert.ErrorIs(t, err, models.ErrUsernameTaken)
	})

	t.Run("correct credentials", func(t *testing.T) {
		userID, err := theService.Authenticate(ctx, "alice", "secret123")
		require.NoError(t, err)
		assert.NotEmpty(t, userID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := theService.Authenticate(ctx, "alice", "wrong-password")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := theService.Authenticate(ctx, "nobody", "secret123")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}

func TestAddContent(t *testing.T) {
	theService, _ := newMemoryService(t)
	ctx := context.Background()

	err := theService.SignUp(ctx, "alice", "secret123")
	require.NoError(t, err)
	userID, err := theService.Authenticate(ctx, "alice", "secret123")
	require.NoError(t, err)

	t.Run("every allowed type", func(t *testing.T) {
		for _, contentType := range []string{"link", "tweet", "video", "document"} {
			item, err := theService.AddContent(ctx, userID, models.AddContentRequest{
				Link:  "https://example.com/" + contentType,
				Type:  contentType,
				Title: "A " + contentType,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, item.ID)
			assert.Equal(t, userID, item.UserID)
			assert.Equal(t, models.ContentType(contentType), item.Type)
		}

		contents, err := theService.GetUserContent(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, contents, 4)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := theService.AddContent(ctx, userID, models.AddContentRequest{
			Link:  "https://example.com",
			Type:  "podcast",
			Title: "Nope",
		})
		assert.ErrorIs(t, err, ErrInvalidContentType)
	})

	t.Run("duplicate tags are dropped", func(t *testing.T) {
		item, err := theService.AddContent(ctx, userID, models.AddContentRequest{
			Link:  "https://example.com/tagged",
			Type:  "link",
			Title: "Tagged",
			Tags:  []string{"go", "testing", "go", "go"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"go", "testing"}, item.Tags)
	})

	t.Run("nil tags come back as an empty slice", func(t *testing.T) {
		item, err := theService.AddContent(ctx, userID, models.AddContentRequest{
			Link:  "https://example.com/untagged",
			Type:  "link",
			Title: "Untagged",
		})
		require.NoError(t, err)
		assert.NotNil(t, item.Tags)
		assert.Empty(t, item.Tags)
	})
}

func TestDeleteContent(t *testing.T) {
	theService, _ := newMemoryService(t)
	ctx := context.Background()

	require.NoError(t, theService.SignUp(ctx, "alice", "secret123"))
	require.NoError(t, theService.SignUp(ctx, "bob", "secret456"))
	aliceID, err := theService.Authenticate(ctx, "alice", "secret123")
	require.NoError(t, err)
	bobID, err := theService.Authenticate(ctx, "bob", "secret456")
	require.NoError(t, err)

	item, err := theService.AddContent(ctx, aliceID, models.AddContentRequest{
		Link:  "https://example.com",
		Type:  "link",
		Title: "Alice's item",
	})
	require.NoError(t, err)

	t.Run("foreign item", func(t *testing.T) {
		err := theService.DeleteContent(ctx, item.ID, bobID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		contents, err := theService.GetUserContent(ctx, aliceID)
		require.NoError(t, err)
		assert.Len(t, contents, 1, "the item must survive a foreign delete attempt")
	})

	t.Run("own item", func(t *testing.T) {
		err := theService.DeleteContent(ctx, item.ID, aliceID)
		require.NoError(t, err)

		contents, err := theService.GetUserContent(ctx, aliceID)
		require.NoError(t, err)
		assert.Empty(t, contents)
	})

	t.Run("already deleted item", func(t *testing.T) {
		err := theService.DeleteContent(ctx, item.ID, aliceID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestSharingLifecycle(t *testing.T) {
	theService, _ := newMemoryService(t)
	ctx := context.Background()

	require.NoError(t, theService.SignUp(ctx, "alice", "secret123"))
	aliceID, err := theService.Authenticate(ctx, "alice", "secret123")
	require.NoError(t, err)

	hash, err := theService.EnableSharing(ctx, aliceID)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-Za-z]{10}$`), hash)

	t.Run("re-enabling returns the same hash", func(t *testing.T) {
		hashAgain, err := theService.EnableSharing(ctx, aliceID)
		require.NoError(t, err)
		assert.Equal(t, hash, hashAgain)
	})

	t.Run("the public view is live", func(t *testing.T) {
		view, err := theService.GetPublicView(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, "alice", view.Username)
		assert.Empty(t, view.Content)

		_, err = theService.AddContent(ctx, aliceID, models.AddContentRequest{
			Link:  "https://example.com/added-after-sharing",
			Type:  "link",
			Title: "Added after sharing",
		})
		require.NoError(t, err)

		view, err = theService.GetPublicView(ctx, hash)
		require.NoError(t, err)
		assert.Len(t, view.Content, 1)
	})

	t.Run("never-issued hash", func(t *testing.T) {
		_, err := theService.GetPublicView(ctx, "NEVERISSUED")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("disable and resolve", func(t *testing.T) {
		require.NoError(t, theService.DisableSharing(ctx, aliceID))

		_, err := theService.GetPublicView(ctx, hash)
		assert.ErrorIs(t, err, models.ErrNotFound, "a revoked hash resolves like a never-issued one")
	})

	t.Run("disabling twice is a no-op", func(t *testing.T) {
		assert.NoError(t, theService.DisableSharing(ctx, aliceID))
	})

	t.Run("a fresh enable draws a new hash", func(t *testing.T) {
		newHash, err := theService.EnableSharing(ctx, aliceID)
		require.NoError(t, err)
		assert.NotEqual(t, hash, newHash)
	})
}

func TestEnableSharingRetriesOnHashCollision(t *testing.T) {
	db := new(mockstorage.StorageMock)
	theService := New(db)

	db.On("UpsertShareLink", mock.Anything, "user-1", mock.Anything).
		Return("", models.ErrHashCollision).
		Once()
	db.On("UpsertShareLink", mock.Anything, "user-1", mock.Anything).
		Return("fresh-hash", nil).
		Once()

	hash, err := theService.EnableSharing(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "fresh-hash", hash)
	db.AssertNumberOfCalls(t, "UpsertShareLink", 2)
}

func TestEnableSharingGivesUpAfterRepeatedCollisions(t *testing.T) {
	db := new(mockstorage.StorageMock)
	theService := New(db)

	db.On("UpsertShareLink", mock.Anything, "user-1", mock.Anything).
		Return("", models.ErrHashCollision)

	_, err := theService.EnableSharing(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrHashSpaceExhausted)
	db.AssertNumberOfCalls(t, "UpsertShareLink", triesToGenerateUniqueHash)
}

func TestGetPublicViewIntegrityFailure(t *testing.T) {
	db := new(mockstorage.StorageMock)
	theService := New(db)

	db.On("FindUserIDByHash", mock.Anything, "orphanedhash").
		Return("vanished-user", true, nil)
	db.On("GetUserByID", mock.Anything, "vanished-user").
		Return(&user.User{ID: ""}, nil)

	_, err := theService.GetPublicView(context.Background(), "orphanedhash")
	assert.ErrorIs(t, err, models.ErrIntegrity)
}

func TestGetPublicViewStorageFailure(t *testing.T) {
	db := new(mockstorage.StorageMock)
	theService := New(db)

	db.On("FindUserIDByHash", mock.Anything, "anyhash").
		Return("", false, errors.New("db error"))

	_, err := theService.GetPublicView(context.Background(), "anyhash")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestGetInternalStats(t *testing.T) {
	theService, _ := newMemoryService(t)
	ctx := context.Background()

	require.NoError(t, theService.SignUp(ctx, "alice", "secret123"))
	require.NoError(t, theService.SignUp(ctx, "bob", "secret456"))
	aliceID, err := theService.Authenticate(ctx, "alice", "secret123")
	require.NoError(t, err)

	_, err = theService.AddContent(ctx, aliceID, models.AddContentRequest{
		Link:  "https://example.com",
		Type:  "link",
		Title: "An item",
	})
	require.NoError(t, err)

	_, err = theService.EnableSharing(ctx, aliceID)
	require.NoError(t, err)

	stats, err := theService.GetInternalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Users)
	assert.Equal(t, int64(1), stats.Content)
	assert.Equal(t, int64(1), stats.ShareLinks)
}
