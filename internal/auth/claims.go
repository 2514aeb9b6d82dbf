package auth

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/diogo/docchat/internal/config"
	apierrors "github.com/diogo/docchat/internal/errors"
)

// Claims are the id token fields the client displays
type Claims struct {
	Email     string
	Username  string
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// GJSON paths of the id token payload
const (
	claimEmail    = "email"
	claimUsername = "cognito:username"
	claimSubject  = "sub"
	claimIssuer   = "iss"
	claimExpiry   = "exp"
)

// ParseIDToken decodes the payload of a JWT. The signature is not verified.
func ParseIDToken(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, apierrors.NewAuthError("id token is not a JWT")
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, apierrors.NewAuthError("id token payload is not base64url")
	}
	if !gjson.ValidBytes(payload) {
		return Claims{}, apierrors.NewAuthError("id token payload is not JSON")
	}

	root := gjson.ParseBytes(payload)
	claims := Claims{
		Email:    root.Get(claimEmail).String(),
		Username: root.Get(claimUsername).String(),
		Subject:  root.Get(claimSubject).String(),
		Issuer:   root.Get(claimIssuer).String(),
	}
	if exp := root.Get(claimExpiry); exp.Exists() {
		claims.ExpiresAt = time.Unix(exp.Int(), 0)
	}
	return claims, nil
}

// credentialsFromTokens builds stored credentials from provider tokens
func credentialsFromTokens(idToken, accessToken, refreshToken string) (*config.Credentials, error) {
	claims, err := ParseIDToken(idToken)
	if err != nil {
		return nil, err
	}
	return &config.Credentials{
		IDToken:      idToken,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Email:        claims.Email,
		Username:     claims.Username,
		ExpiresAt:    claims.ExpiresAt,
	}, nil
}
