package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodfind/internal/domain"
)

var notificationColumns = []string{"id", "user_id", "action", "target", "actor_id", "read", "metadata", "created_at"}

func notificationRow(id uuid.UUID, action domain.NotificationAction, metadata driver.Value) []driver.Value {
	return []driver.Value{
		id.String(), uuid.NewString(), string(action), uuid.NewString(), uuid.NewString(), false, metadata, time.Now(),
	}
}

func TestNotificationRepository_GetByID_NullMetadata(t *testing.T) {
	id := uuid.New()
	_, db := newFakeDB(func(string) ([]string, [][]driver.Value) {
		return notificationColumns, [][]driver.Value{notificationRow(id, domain.ActionBookmark, nil)}
	})

	notif, err := NewNotificationRepository(db).GetByID(context.Background(), id)

	require.NoError(t, err)
	require.NotNil(t, notif)
	assert.Equal(t, id, notif.ID)
	assert.False(t, notif.Metadata.Valid)
	assert.Nil(t, notif.Metadata.Bytes())

	body, err := json.Marshal(notif)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"metadata":null`)
}

func TestNotificationRepository_ListByUser_MixedMetadata(t *testing.T) {
	userID := uuid.New()
	removal := []byte(`{"productName":"Widget","reason":"Spam","canAppeal":true}`)
	_, db := newFakeDB(func(query string) ([]string, [][]driver.Value) {
		if containsCount(query) {
			return []string{"count"}, [][]driver.Value{{int64(2)}}
		}
		return notificationColumns, [][]driver.Value{
			notificationRow(uuid.New(), domain.ActionRecommendation, nil),
			notificationRow(uuid.New(), domain.ActionProductRemoved, removal),
		}
	})

	list, total, err := NewNotificationRepository(db).ListByUser(context.Background(), userID, false, domain.PaginationParams{Page: 1, PageSize: 20})

	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.False(t, list[0].Metadata.Valid)

	meta, err := list[1].RemovalMetadata()
	require.NoError(t, err)
	assert.Equal(t, "Widget", meta.ProductName)
	assert.True(t, meta.CanAppeal)
}

func TestNotificationRepository_Create_WritesNullMetadata(t *testing.T) {
	fake, db := newFakeDB(func(string) ([]string, [][]driver.Value) {
		return []string{"created_at"}, [][]driver.Value{{time.Now()}}
	})
	notif, err := domain.NewNotification(uuid.New(), domain.ActionBookmark, uuid.New(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, NewNotificationRepository(db).Create(context.Background(), notif))

	require.Len(t, fake.args, 1)
	assert.Nil(t, fake.args[0][6])
	assert.False(t, notif.CreatedAt.IsZero())
}
