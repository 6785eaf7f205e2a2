package httpclient

import "net/http"

// DefaultAPIKeyHeader carries the key when AuthConfig.Header is empty.
const DefaultAPIKeyHeader = "X-API-Key"

// AuthConfig sends a static API key on every request.
type AuthConfig struct {
	Key string
	// Header is the header carrying the key. Defaults to X-API-Key.
	Header string
}

// APIKeyAuth creates an API key auth config sent in X-API-Key.
func APIKeyAuth(key string) *AuthConfig {
	return &AuthConfig{Key: key, Header: DefaultAPIKeyHeader}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	name := a.Header
	if name == "" {
		name = DefaultAPIKeyHeader
	}
	req.Header.Set(name, a.Key)
}
