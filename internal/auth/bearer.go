package auth

import (
	fhttp "github.com/bogdanfinn/fhttp"

	"github.com/diogo/docchat/internal/api"
	apierrors "github.com/diogo/docchat/internal/errors"
)

// IDTokenSource yields the current id token, "" when signed out
type IDTokenSource interface {
	IDToken() string
}

// BearerDecorator attaches "Authorization: Bearer <id token>" to every request.
// Requests fail with ErrNotSignedIn while no token is available.
func BearerDecorator(src IDTokenSource) api.RequestDecorator {
	return func(req *fhttp.Request) error {
		token := src.IDToken()
		if token == "" {
			return apierrors.ErrNotSignedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}
