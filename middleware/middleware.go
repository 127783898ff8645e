// Package middleware gates HTTP routes with the same access metadata used
// for RPC methods.
//
// The session cookie is resolved through the engine's resolver. Denied
// requests get 404 rather than 403, so a route the caller may not use
// looks the same as one that does not exist.
package middleware

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/xraph/forge"

	"github.com/xraph/rampart"
)

// Require allows the request only when the caller's identity satisfies
// every requirement.
func Require(eng *rampart.Engine, reqs ...rampart.Requirement) forge.Middleware {
	meta := rampart.NewMetadata(reqs...)
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			identity, err := Identify(eng, ctx.Request())
			if err != nil {
				return err
			}
			if !eng.Authorize(identity, &meta) {
				return denyResponse(ctx.Response())
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if ANY of the metadata sets is satisfied.
func RequireAny(eng *rampart.Engine, metas ...rampart.Metadata) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			identity, err := Identify(eng, ctx.Request())
			if err != nil {
				return err
			}
			for i := range metas {
				if eng.Authorize(identity, &metas[i]) {
					return next(ctx)
				}
			}
			return denyResponse(ctx.Response())
		}
	}
}

// RequireHTTP is Require for plain net/http handlers. The resolved
// identity is available to next through rampart.IdentityFrom.
func RequireHTTP(eng *rampart.Engine, reqs ...rampart.Requirement) func(http.Handler) http.Handler {
	meta := rampart.NewMetadata(reqs...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := Identify(eng, r)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			if !eng.Authorize(identity, &meta) {
				_ = denyResponse(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(rampart.WithIdentity(r.Context(), identity)))
		})
	}
}

// Identify resolves the identity behind the request's session cookie.
// Missing or stale cookies yield Anonymous; the only error is the
// request's context ending during the lookup.
func Identify(eng *rampart.Engine, r *http.Request) (*rampart.Identity, error) {
	var token string
	if ck, err := r.Cookie(eng.CookieName()); err == nil {
		token = ck.Value
	}
	return eng.Resolver().Resolve(r.Context(), token)
}

func denyResponse(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	return json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
}
