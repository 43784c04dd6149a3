package session

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noid254/nikosoko/internal/authgate"
	"github.com/noid254/nikosoko/internal/contactgate"
	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/pkg/auth"
)

func TestSessionRole(t *testing.T) {
	s := New(time.Now())
	assert.Equal(t, auth.RoleVisitor, s.Role())
	assert.Zero(t, s.ProviderID())

	s.Identity = &Identity{ProviderID: 7, Role: auth.RoleSuperadmin}
	assert.Equal(t, auth.RoleVisitor, s.Role(), "identity without login is still a visitor")

	s.Auth.Status = authgate.Authenticated
	assert.True(t, s.IsSuperadmin())
	assert.EqualValues(t, 7, s.ProviderID())
}

func TestToggleSaved(t *testing.T) {
	s := New(time.Now())
	assert.True(t, s.ToggleSaved(3))
	assert.True(t, s.ToggleSaved(4))
	assert.True(t, s.IsSaved(3))
	assert.False(t, s.ToggleSaved(3))
	assert.Equal(t, []int64{4}, s.SavedContacts)
}

func TestLogoutKeepsSessionScopedState(t *testing.T) {
	s := New(time.Now())
	s.Auth.Status = authgate.Authenticated
	s.Identity = &Identity{ProviderID: 1, Role: auth.RoleUser}
	require.NoError(t, s.Contacts.InitiateContact(true, contactgate.Contact{ProviderID: 2}))
	s.View.OpenProfile(2)
	s.ToggleSaved(2)
	s.Flagged[2] = true
	s.Tickets = append(s.Tickets, domain.Ticket{ID: "TKT-1-ABCDEF"})

	id := s.ID
	s.Logout()

	assert.Equal(t, id, s.ID)
	assert.Nil(t, s.Identity)
	assert.Equal(t, authgate.LoggedOut, s.Auth.Status)
	assert.Equal(t, 1, s.Contacts.Count())
	assert.Nil(t, s.View.SelectedProfile)
	assert.Equal(t, []int64{2}, s.SavedContacts)
	assert.True(t, s.Flagged[2])
	assert.Empty(t, s.Tickets)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	s := New(time.Now())
	require.NoError(t, store.Create(ctx, s))

	t.Run("get returns an independent copy", func(t *testing.T) {
		got, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		got.SavedContacts = append(got.SavedContacts, 9)
		again, _ := store.Get(ctx, s.ID)
		assert.Empty(t, again.SavedContacts)
	})

	t.Run("failed update is not stored", func(t *testing.T) {
		_, err := store.Update(ctx, s.ID, func(s *Session) error {
			s.ToggleSaved(1)
			return errors.New("nope")
		})
		assert.Error(t, err)
		got, _ := store.Get(ctx, s.ID)
		assert.Empty(t, got.SavedContacts)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := store.Update(ctx, "nope", func(*Session) error { return nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent updates are serialized", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := int64(1); i <= 50; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				_, err := store.Update(ctx, s.ID, func(s *Session) error {
					s.ToggleSaved(id)
					return nil
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()
		got, _ := store.Get(ctx, s.ID)
		assert.Len(t, got.SavedContacts, 50)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, s.ID))
		_, err := store.Get(ctx, s.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	s := New(now)
	require.NoError(t, store.Create(ctx, s))

	now = now.Add(30 * time.Second)
	_, err := store.Update(ctx, s.ID, func(*Session) error { return nil })
	require.NoError(t, err, "update slides the expiry")

	now = now.Add(45 * time.Second)
	_, err = store.Get(ctx, s.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestRedisStore needs a running Redis; set REDIS_TEST_ADDR to enable it.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, time.Minute)
	s := New(time.Now())
	require.NoError(t, store.Create(ctx, s))
	t.Cleanup(func() { _ = store.Delete(ctx, s.ID) })

	var wg sync.WaitGroup
	for i := int64(1); i <= 5; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := store.Update(ctx, s.ID, func(s *Session) error {
				s.ToggleSaved(id)
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, got.SavedContacts, 5)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
