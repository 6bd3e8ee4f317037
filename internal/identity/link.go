package identity

import (
	"context"

	"github.com/google/uuid"
)

// TokenRepository is the slice of the authed-token store identity needs to
// bind a registered user to a token.
type TokenRepository interface {
	BindAuthedToken(ctx context.Context, userID, authedTokenID uuid.UUID) error
}

// Linker binds a registered user to the AuthedToken they authenticated
// bbs.cgi writes with, either directly (first-party registration) or after
// a successful OIDC callback.
type Linker struct {
	tokens TokenRepository
	idps   Repository
}

// NewLinker builds a Linker.
func NewLinker(tokens TokenRepository, idps Repository) *Linker {
	return &Linker{tokens: tokens, idps: idps}
}

// BindDirect attaches a registered user to an authed token without an
// external identity provider.
func (l *Linker) BindDirect(ctx context.Context, authedTokenID, userID uuid.UUID) error {
	return l.tokens.BindAuthedToken(ctx, userID, authedTokenID)
}

// BindViaIdp attaches a registered user to an authed token and records the
// external identity provider subject that authorized the link.
func (l *Linker) BindViaIdp(ctx context.Context, authedTokenID, userID uuid.UUID, idpName, subject string) error {
	if err := l.tokens.BindAuthedToken(ctx, userID, authedTokenID); err != nil {
		return err
	}
	return l.idps.LinkUserToIdp(ctx, userID, idpName, subject)
}
