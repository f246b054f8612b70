package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/translation-router/internal/config"
)

func TestRegistry(t *testing.T) {
	Register("registry-test", func(cfg config.ProviderConfig, deps Deps) (Provider, error) {
		return NewClient(cfg, Traits{MaxBatch: 5}, deps, upper), nil
	})

	assert.Contains(t, Kinds(), "registry-test")
	assert.Panics(t, func() {
		Register("registry-test", nil)
	})

	p, err := Build(config.ProviderConfig{Name: "custom", Type: "registry-test", Enabled: true, Priority: 2}, Deps{})
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name())
	assert.Equal(t, 2, p.Tier())
	assert.Equal(t, 5, p.BatchSize())

	_, err = Lookup("missing")
	assert.Error(t, err)
}
