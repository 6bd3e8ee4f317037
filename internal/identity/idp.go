// Package identity links an AuthedToken to a registered user account,
// either directly or via an external OIDC identity provider, and issues
// the short-lived registration temp-URLs used to bridge the bbs.cgi
// write path to the web registration flow.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Idp is a configured external identity provider available for account
// linking.
type Idp struct {
	ID            uuid.UUID
	Name          string
	DisplayName   string
	LogoSVG       string
	OIDCConfigURL string
	ClientID      string
	ClientSecret  string
	Enabled       bool
}

// Repository loads identity providers and persists user/token links.
type Repository interface {
	IdpByName(ctx context.Context, name string) (Idp, error)
	EnabledIdps(ctx context.Context) ([]Idp, error)
	LinkUserToIdp(ctx context.Context, userID uuid.UUID, idpName, subject string) error
}
