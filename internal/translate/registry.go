package translate

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/nulzo/translation-router/internal/cache"
	"github.com/nulzo/translation-router/internal/config"
)

// Deps are the shared collaborators handed to every provider factory.
type Deps struct {
	Cache      cache.Cache
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Factory builds a provider from its configuration section.
type Factory func(cfg config.ProviderConfig, deps Deps) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a provider type available to Build. It panics on duplicates
// and is meant to be called from init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("translation provider %s already registered", kind))
	}
	factories[kind] = f
}

func Lookup(kind string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("no translation provider registered for type %q", kind)
	}
	return f, nil
}

// Kinds lists the registered provider types.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build looks up the factory for cfg's type and calls it.
func Build(cfg config.ProviderConfig, deps Deps) (Provider, error) {
	f, err := Lookup(cfg.Kind())
	if err != nil {
		return nil, err
	}
	return f(cfg, deps)
}
