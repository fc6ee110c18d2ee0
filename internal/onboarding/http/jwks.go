package http

import (
	"net/http"

	"github.com/harborfund/portal/pkg/httpx"
	"github.com/harborfund/portal/pkg/jwtx"
	"github.com/harborfund/portal/pkg/portalsdk"
)

// JWKSHandler exposes the public keys that verify access tokens.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify access tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	portalsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, portalsdk.JWKSResponse(keys.PublicJWKS()))
	}
}
