package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository keyed by user id.
type fakeUserRepo struct {
	users       map[string]*domain.User
	createCalls int
	failCreate  error
	// missFirstRead makes the first GetByExternalIDOrEmail report not found,
	// as if a concurrent login inserted the row just after our read.
	missFirstRead bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.createCalls++
	if r.failCreate != nil {
		return r.failCreate
	}
	for _, existing := range r.users {
		if existing.Email == user.Email || (user.ExternalID != "" && existing.ExternalID == user.ExternalID) {
			return repository.ErrConflict
		}
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id string, update repository.ProfileUpdate) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	return nil
}

func (r *fakeUserRepo) GetByExternalIDOrEmail(_ context.Context, externalID, email string) (*domain.User, error) {
	if r.missFirstRead {
		r.missFirstRead = false
		return nil, repository.ErrNotFound
	}
	for _, user := range r.users {
		if (externalID != "" && user.ExternalID == externalID) || user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

// fakeProvider validates exactly one token string.
type fakeProvider struct {
	validToken string
	identity   *DelegatedIdentity
}

func (p *fakeProvider) AuthCodeURL(state string) string { return "https://idp.example.com/auth?" + state }

func (p *fakeProvider) Exchange(_ context.Context, _ string) (string, *DelegatedIdentity, error) {
	return p.validToken, p.identity, nil
}

func (p *fakeProvider) Validate(_ context.Context, rawIDToken string) (*DelegatedIdentity, error) {
	if rawIDToken != p.validToken {
		return nil, errors.New("invalid token")
	}
	return p.identity, nil
}

func testIdentity() *DelegatedIdentity {
	return &DelegatedIdentity{
		ExternalID: "google-sub-1",
		Email:      "grace@example.com",
		Name:       "Grace",
		Image:      "https://img.example.com/grace.png",
	}
}

func TestResolvePrefersCookieToken(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)
	repo := newFakeUserRepo()
	provider := &fakeProvider{validToken: "provider-token", identity: testIdentity()}
	resolver := NewSessionResolver(codec, provider, repo)

	cookieUser := &domain.User{ID: "cookie-user", Email: "cookie@example.com", Role: domain.RoleInstructor}
	tokenString, err := codec.Mint(cookieUser)
	require.NoError(t, err)

	// Both mechanisms present: the cookie identity wins.
	session := resolver.Resolve(context.Background(), tokenString, "provider-token")
	require.NotNil(t, session)
	require.Equal(t, "cookie-user", session.UserID)
	require.Zero(t, repo.createCalls, "cookie path must not touch the user repo")
}

func TestResolveFallsThroughToProvider(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)
	repo := newFakeUserRepo()
	provider := &fakeProvider{validToken: "provider-token", identity: testIdentity()}
	resolver := NewSessionResolver(codec, provider, repo)

	// An invalid cookie behaves like no cookie at all.
	session := resolver.Resolve(context.Background(), "tampered-garbage", "provider-token")
	require.NotNil(t, session)
	require.Equal(t, "grace@example.com", session.Email)
	require.Equal(t, domain.RoleViewer, session.Role)
	require.Equal(t, 1, repo.createCalls, "first delegated login provisions the user")
}

func TestResolveAnonymous(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)
	provider := &fakeProvider{validToken: "provider-token", identity: testIdentity()}
	resolver := NewSessionResolver(codec, provider, newFakeUserRepo())

	require.Nil(t, resolver.Resolve(context.Background(), "", ""))
	require.Nil(t, resolver.Resolve(context.Background(), "bad", "also-bad"))
}

func TestResolveWithoutProvider(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)
	resolver := NewSessionResolver(codec, nil, newFakeUserRepo())

	require.Nil(t, resolver.Resolve(context.Background(), "", "provider-token"))
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)
	repo := newFakeUserRepo()
	resolver := NewSessionResolver(codec, nil, repo)

	first, err := resolver.EnsureUser(context.Background(), testIdentity())
	require.NoError(t, err)
	require.Equal(t, domain.RoleViewer, first.Role)

	second, err := resolver.EnsureUser(context.Background(), testIdentity())
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, repo.createCalls, "second login must reuse the existing row")
}

func TestEnsureUserRaceLoserReReads(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)
	repo := newFakeUserRepo()
	resolver := NewSessionResolver(codec, nil, repo)

	// Simulate losing the insert race: the winner's row appears between our
	// read and our insert.
	winner := &domain.User{ID: "winner", Email: "grace@example.com", ExternalID: "google-sub-1", Role: domain.RoleViewer}
	repo.users[winner.ID] = winner
	repo.missFirstRead = true
	repo.failCreate = repository.ErrConflict

	user, err := resolver.EnsureUser(context.Background(), testIdentity())
	require.NoError(t, err)
	require.Equal(t, "winner", user.ID)
	require.Equal(t, 1, repo.createCalls)
}
