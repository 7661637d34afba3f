package session

import (
	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/taxbase/metricshub/internal/errors"
	"github.com/taxbase/metricshub/internal/utils"
)

// DecodeExternalToken extracts a User from a hub-issued bearer token.
//
// The token must have the three-part header.payload.signature shape and the
// payload must decode as claims. The signature is deliberately NOT verified
// here: the backend is the verifier, this side only needs the identity to
// display and the role to gate the UI with.
func DecodeExternalToken(rawToken string) (User, error) {
	unverified, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return User{}, errors.Wrapf(errors.ErrMalformedToken, "failed to parse token payload")
	}

	claims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return User{}, errors.Wrapf(errors.ErrMalformedToken, "error extracting claims")
	}

	email := utils.ToString(claims["email"])
	sub := utils.ToString(claims["sub"])
	name := utils.ToString(claims["nome"])

	username := utils.FirstNonEmpty(email, sub, "unknown")

	// The hub speaks its own permission vocabulary.
	permission := utils.FirstNonEmpty(utils.ToString(claims["permissao"]), utils.ToString(claims["role"]))

	return User{
		Username:    username,
		Role:        mapHubPermission(permission),
		DisplayName: utils.FirstNonEmpty(name, email, sub),
	}, nil
}

// mapHubPermission maps the hub's permission vocabulary onto metricshub
// roles. Anything unrecognised degrades to viewer.
func mapHubPermission(permission string) Role {
	if permission == "admin" || permission == "admin_master" {
		return RoleAdmin
	}
	return RoleViewer
}
