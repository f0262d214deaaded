// Package pathresolve computes the public base path under which snapshot JSON is served.
package pathresolve

import (
	"net/url"
	"strings"
)

// NormalizePublicPath guarantees a single trailing slash at the boundary.
// Only a missing slash is added; repeated slashes are left as-is.
func NormalizePublicPath(publicPath string) string {
	if strings.HasSuffix(publicPath, "/") {
		return publicPath
	}
	return publicPath + "/"
}

// NormalizeRouterBase strips exactly one trailing slash.
func NormalizeRouterBase(base string) string {
	return strings.TrimSuffix(base, "/")
}

// IsURL reports whether s parses as an absolute URL. Anything url.Parse rejects,
// or that has no scheme, is a relative path.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != ""
}

// Resolve returns the externally reachable base path for the snapshot API.
//
// An absolute publicPath is used directly: "<publicPath>/<apiBase>".
// Otherwise the router base is prepended: "<routerBase><publicPath>/<apiBase>".
func Resolve(publicPath, routerBase, apiBase string) string {
	publicPath = NormalizePublicPath(publicPath)
	routerBase = NormalizeRouterBase(routerBase)

	if IsURL(publicPath) {
		return publicPath + apiBase
	}
	return routerBase + publicPath + apiBase
}
