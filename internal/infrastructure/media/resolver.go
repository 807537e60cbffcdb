package media

import (
	"strings"
)

// Resolver maps stored asset paths onto URLs under a base URL.
type Resolver struct {
	BaseURL string
}

// ResolveAssetURL leaves absolute, root-relative and data URLs alone and
// prefixes everything else with the base URL.
func (r Resolver) ResolveAssetURL(raw string) string {
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"),
		strings.HasPrefix(raw, "data:"), strings.HasPrefix(raw, "/"):
		return raw
	}
	base := strings.TrimSuffix(r.BaseURL, "/")
	return base + "/" + strings.TrimPrefix(raw, "./")
}
