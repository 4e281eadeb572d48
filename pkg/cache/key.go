package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "artic:cache"

// Key identifies a cached response.
type Key struct {
	// Endpoint is the request path (e.g. "/api/v1/artworks")
	Endpoint string

	// Query holds the query parameters (e.g. page, limit, fields)
	Query url.Values
}

// String generates a deterministic key.
// Format: artic:cache:endpoint:query1=val1:query2=val2
//
// Example:
//
//	artic:cache:api/v1/artworks:limit=12:page=2
func (k Key) String() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.Query[name]...)
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(values, ",")))
		}
	}

	return strings.Join(parts, ":")
}
