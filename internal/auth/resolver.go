package auth

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
)

// SessionResolver resolves a canonical identity from the two competing
// session mechanisms. The signed cookie token always takes precedence; the
// delegated provider session is only consulted when the cookie path yields
// nothing. A nil result means anonymous.
type SessionResolver interface {
	Resolve(ctx context.Context, authToken, providerToken string) *Session
	// EnsureUser provisions the catalog row for a delegated identity on
	// first login; used by the OIDC callback and by Resolve itself.
	EnsureUser(ctx context.Context, identity *DelegatedIdentity) (*domain.User, error)
}

type sessionResolver struct {
	codec    *TokenCodec
	provider DelegatedProvider
	userRepo repository.UserRepository
}

// NewSessionResolver builds the resolver with its fixed strategy order.
// provider may be nil when delegated login is disabled.
func NewSessionResolver(codec *TokenCodec, provider DelegatedProvider, userRepo repository.UserRepository) SessionResolver {
	if codec == nil {
		panic("session resolver requires a token codec")
	}
	return &sessionResolver{
		codec:    codec,
		provider: provider,
		userRepo: userRepo,
	}
}

// Resolve tries the cookie token first, then the delegated provider. Token
// verification failures are indistinguishable from an absent cookie.
func (r *sessionResolver) Resolve(ctx context.Context, authToken, providerToken string) *Session {
	if authToken != "" {
		if session := r.codec.Verify(authToken); session != nil {
			return session
		}
	}

	if providerToken != "" && r.provider != nil {
		identity, err := r.provider.Validate(ctx, providerToken)
		if err != nil {
			// Same policy as the cookie path: an invalid provider token is
			// just an anonymous request.
			return nil
		}
		user, err := r.EnsureUser(ctx, identity)
		if err != nil {
			log.Printf("ERROR: Failed to provision delegated user %s: %v", identity.Email, err)
			return nil
		}
		return &Session{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
			Name:   user.Name,
			Image:  user.AvatarURL,
		}
	}

	return nil
}

// EnsureUser finds the catalog user for a delegated identity, creating a
// viewer row on first login. Creation is idempotent against races: a
// duplicate insert from a concurrent first login is treated as "already
// exists" and resolved by re-reading.
func (r *sessionResolver) EnsureUser(ctx context.Context, identity *DelegatedIdentity) (*domain.User, error) {
	user, err := r.userRepo.GetByExternalIDOrEmail(ctx, identity.ExternalID, identity.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user = &domain.User{
		ID:         uuid.New().String(),
		Email:      identity.Email,
		ExternalID: identity.ExternalID,
		Name:       identity.Name,
		AvatarURL:  identity.Image,
		Role:       domain.RoleViewer,
	}
	err = r.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Lost the race; the winner's row is the user.
			return r.userRepo.GetByExternalIDOrEmail(ctx, identity.ExternalID, identity.Email)
		}
		return nil, err
	}

	log.Printf("INFO: Provisioned viewer account for %s via delegated login", identity.Email)
	return user, nil
}
