package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/pawfam/internal/models"
	"github.com/hongminglow/pawfam/internal/storage"
)

func TestDuplicateField(t *testing.T) {
	assert.Equal(t, "email", duplicateField(errors.New("E11000 duplicate key error collection: pawfam.users index: email_unique dup key")))
	assert.Equal(t, "username", duplicateField(errors.New("E11000 duplicate key error collection: pawfam.users index: username_unique dup key")))
	assert.Equal(t, "account", duplicateField(errors.New("E11000 duplicate key error index: _id_")))
}

func TestFindByID_InvalidHex(t *testing.T) {
	s := &Store{}
	_, err := s.FindByID(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// TestStoreIntegration exercises the store against a live MongoDB.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_MONGO_INTEGRATION") != "true" {
		t.Skip("set RUN_MONGO_INTEGRATION=true to run this integration test")
	}
	uri := os.Getenv("MONGO_URI")
	require.NotEmpty(t, uri, "MONGO_URI is required")

	ctx := context.Background()
	store, err := NewUserStore(ctx, uri, "pawfam_test")
	require.NoError(t, err)
	defer store.Close()

	suffix := time.Now().UnixNano()
	created, err := store.CreateUser(ctx, models.User{
		Username:     fmt.Sprintf("mongotest_%d", suffix),
		Email:        fmt.Sprintf("mongotest_%d@example.com", suffix),
		Role:         models.RoleCustomer,
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, models.User{Username: created.Username, Email: "other" + created.Email, Role: models.RoleCustomer})
	var conflict *storage.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "username", conflict.Field)

	now := time.Now().UTC()
	require.NoError(t, store.SetResetCode(ctx, created.ID, "XYZ789", now.Add(time.Minute)))
	require.NoError(t, store.ConsumeResetCode(ctx, created.ID, "XYZ789", now, "new-hash"))
	assert.ErrorIs(t, store.ConsumeResetCode(ctx, created.ID, "XYZ789", now, "again"), storage.ErrResetCodeMismatch)
}
