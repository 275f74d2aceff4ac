package identity_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authsvc/pkg/identity"
	"github.com/dmitrymomot/authsvc/pkg/idtoken"
)

// memStorage implements identity.Storage with maps guarded by a mutex,
// mirroring the constraint behavior of the PostgreSQL store.
type memStorage struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*identity.User
	byEmail  map[string]uuid.UUID
	accounts map[string]uuid.UUID // provider/providerAccountID -> userID
}

func newMemStorage() *memStorage {
	return &memStorage{
		users:    make(map[uuid.UUID]*identity.User),
		byEmail:  make(map[string]uuid.UUID),
		accounts: make(map[string]uuid.UUID),
	}
}

func accountKey(provider, providerAccountID string) string {
	return provider + "/" + providerAccountID
}

func (s *memStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStorage) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.accounts[accountKey(provider, providerAccountID)]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	cp := *s.users[userID]
	return &cp, nil
}

func (s *memStorage) CreateUser(ctx context.Context, user *identity.User) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[user.Email]; taken {
		return nil, identity.ErrEmailTaken
	}
	cp := *user
	s.users[cp.ID] = &cp
	s.byEmail[cp.Email] = cp.ID
	out := cp
	return &out, nil
}

func (s *memStorage) UpsertUserByEmail(ctx context.Context, user *identity.User) (*identity.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existingID, ok := s.byEmail[user.Email]; ok {
		existing := s.users[existingID]
		if user.Name != "" {
			existing.Name = user.Name
		}
		if user.ImageURL != "" {
			existing.ImageURL = user.ImageURL
		}
		cp := *existing
		return &cp, false, nil
	}
	cp := *user
	s.users[cp.ID] = &cp
	s.byEmail[cp.Email] = cp.ID
	out := cp
	return &out, true, nil
}

func (s *memStorage) UpdateUserProfile(ctx context.Context, id uuid.UUID, name, imageURL string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	u.Name = name
	u.ImageURL = imageURL
	cp := *u
	return &cp, nil
}

func (s *memStorage) LinkAccount(ctx context.Context, account *identity.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := accountKey(account.Provider, account.ProviderAccountID)
	if _, ok := s.accounts[key]; ok {
		return nil
	}
	s.accounts[key] = account.UserID
	return nil
}

var _ identity.Storage = (*memStorage)(nil)

func googleProfile(sub, email string) idtoken.Profile {
	return idtoken.Profile{
		Provider:       idtoken.ProviderGoogle,
		ProviderUserID: sub,
		Email:          email,
		EmailVerified:  true,
		Name:           "Test User",
		Picture:        "https://example.com/p.jpg",
	}
}

func TestResolverResolve(t *testing.T) {
	t.Parallel()

	t.Run("first sign-in creates user and link", func(t *testing.T) {
		t.Parallel()

		store := newMemStorage()
		r := identity.NewResolver(store)

		user, err := r.Resolve(context.Background(), googleProfile("g-1", "user@example.com"))
		require.NoError(t, err)

		assert.Equal(t, "user@example.com", user.Email)
		assert.Equal(t, "Test User", user.Name)
		assert.True(t, user.EmailVerified)

		linked, err := store.GetUserByAccount(context.Background(), "google", "g-1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, linked.ID)
	})

	t.Run("repeat sign-in returns the same user", func(t *testing.T) {
		t.Parallel()

		store := newMemStorage()
		r := identity.NewResolver(store)

		first, err := r.Resolve(context.Background(), googleProfile("g-1", "user@example.com"))
		require.NoError(t, err)
		second, err := r.Resolve(context.Background(), googleProfile("g-1", "user@example.com"))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("email is normalized", func(t *testing.T) {
		t.Parallel()

		store := newMemStorage()
		r := identity.NewResolver(store)

		user, err := r.Resolve(context.Background(), googleProfile("g-1", "  User@Example.COM "))
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", user.Email)
	})

	t.Run("verified email merges across providers", func(t *testing.T) {
		t.Parallel()

		store := newMemStorage()
		r := identity.NewResolver(store)

		viaGoogle, err := r.Resolve(context.Background(), googleProfile("g-1", "user@example.com"))
		require.NoError(t, err)

		viaApple, err := r.Resolve(context.Background(), idtoken.Profile{
			Provider:       idtoken.ProviderApple,
			ProviderUserID: "a-1",
			Email:          "user@example.com",
			EmailVerified:  true,
		})
		require.NoError(t, err)

		assert.Equal(t, viaGoogle.ID, viaApple.ID, "same verified email must map to one user")

		linked, err := store.GetUserByAccount(context.Background(), "apple", "a-1")
		require.NoError(t, err)
		assert.Equal(t, viaGoogle.ID, linked.ID)
	})

	t.Run("unverified email never merges", func(t *testing.T) {
		t.Parallel()

		store := newMemStorage()
		r := identity.NewResolver(store)

		_, err := r.Resolve(context.Background(), googleProfile("g-1", "user@example.com"))
		require.NoError(t, err)

		_, err = r.Resolve(context.Background(), idtoken.Profile{
			Provider:       idtoken.ProviderApple,
			ProviderUserID: "a-1",
			Email:          "user@example.com",
			EmailVerified:  false,
		})
		assert.ErrorIs(t, err, identity.ErrEmailConflict)
	})

	t.Run("unverified email creates user when address is free", func(t *testing.T) {
		t.Parallel()

		store := newMemStorage()
		r := identity.NewResolver(store)

		user, err := r.Resolve(context.Background(), idtoken.Profile{
			Provider:       idtoken.ProviderApple,
			ProviderUserID: "a-1",
			Email:          "a-1@privaterelay.appleid.com",
			EmailVerified:  false,
		})
		require.NoError(t, err)
		assert.False(t, user.EmailVerified)
	})

	t.Run("repeat sign-in refreshes display fields", func(t *testing.T) {
		t.Parallel()

		store := newMemStorage()
		r := identity.NewResolver(store)

		_, err := r.Resolve(context.Background(), googleProfile("g-1", "user@example.com"))
		require.NoError(t, err)

		fresh := googleProfile("g-1", "user@example.com")
		fresh.Name = "Renamed User"
		updated, err := r.Resolve(context.Background(), fresh)
		require.NoError(t, err)
		assert.Equal(t, "Renamed User", updated.Name)
	})

	t.Run("empty profile fields never erase stored ones", func(t *testing.T) {
		t.Parallel()

		store := newMemStorage()
		r := identity.NewResolver(store)

		_, err := r.Resolve(context.Background(), googleProfile("g-1", "user@example.com"))
		require.NoError(t, err)

		bare := googleProfile("g-1", "user@example.com")
		bare.Name = ""
		bare.Picture = ""
		user, err := r.Resolve(context.Background(), bare)
		require.NoError(t, err)
		assert.Equal(t, "Test User", user.Name)
		assert.Equal(t, "https://example.com/p.jpg", user.ImageURL)
	})

	t.Run("incomplete profiles are rejected", func(t *testing.T) {
		t.Parallel()

		r := identity.NewResolver(newMemStorage())

		for _, profile := range []idtoken.Profile{
			{ProviderUserID: "x", Email: "a@b.c"},
			{Provider: "google", Email: "a@b.c"},
			{Provider: "google", ProviderUserID: "x"},
		} {
			_, err := r.Resolve(context.Background(), profile)
			assert.ErrorIs(t, err, identity.ErrInvalidProfile)
		}
	})

	t.Run("concurrent first sign-ins resolve to one user", func(t *testing.T) {
		t.Parallel()

		store := newMemStorage()
		r := identity.NewResolver(store)

		const n = 16
		results := make(chan *identity.User, n)
		errs := make(chan error, n)
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				user, err := r.Resolve(context.Background(), googleProfile("g-1", "user@example.com"))
				if err != nil {
					errs <- err
					return
				}
				results <- user
			}()
		}
		wg.Wait()
		close(results)
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		ids := make(map[uuid.UUID]bool)
		for user := range results {
			ids[user.ID] = true
		}
		assert.Len(t, ids, 1, "all racers must land on the same user")
	})
}

func TestResolverEmailCase(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	r := identity.NewResolver(store)

	first, err := r.Resolve(context.Background(), googleProfile("g-1", "User@Example.com"))
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), idtoken.Profile{
		Provider:       idtoken.ProviderApple,
		ProviderUserID: "a-1",
		Email:          strings.ToUpper("user@example.com"),
		EmailVerified:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}
