package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/lesstokens/errors"
)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register adds a provider factory under name (case-insensitive).
// Typically called from init() in adapter packages:
//
//	func init() {
//	    llm.Register("openai", New)
//	}
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[strings.ToLower(name)] = f
}

// New builds the provider registered under name. Unknown names fail with
// INVALID_PROVIDER listing the supported set.
func New(name, apiKey, baseURL string) (Provider, error) {
	factoriesMu.RLock()
	f, ok := factories[strings.ToLower(strings.TrimSpace(name))]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.InvalidProvider(fmt.Sprintf(
			"Unsupported provider: %s. Supported providers: %s",
			name, strings.Join(Supported(), ", "))).
			WithDetail("provider", name)
	}
	return f(apiKey, baseURL)
}

// Supported returns the sorted names of all registered providers.
func Supported() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSupported reports whether name is registered.
func IsSupported(name string) bool {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	_, ok := factories[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
