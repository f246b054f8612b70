package router

import (
	"sort"

	"github.com/nulzo/translation-router/internal/translate"
)

// candidate is a provider in the router's base order.
type candidate struct {
	provider translate.Provider
	// position in the configuration, the final tie-break
	position int
	// skipped providers are enabled but have no credentials; they appear in
	// the trail but are never called
	skipped bool
}

type enabler interface {
	Enabled() bool
}

type credentialed interface {
	HasCredentials() bool
}

type languageAware interface {
	PrefersLanguage(target string) bool
}

func prefers(p translate.Provider, target string) bool {
	la, ok := p.(languageAware)
	return ok && la.PrefersLanguage(target)
}

// orderFor returns the candidates for a target language: ascending tier,
// then providers preferring target, then configuration order. A language
// match only reorders providers within a tier.
func orderFor(base []candidate, target string) []candidate {
	out := make([]candidate, len(base))
	copy(out, base)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.provider.Tier() != b.provider.Tier() {
			return a.provider.Tier() < b.provider.Tier()
		}
		pa, pb := prefers(a.provider, target), prefers(b.provider, target)
		if pa != pb {
			return pa
		}
		return a.position < b.position
	})
	return out
}

// tierTies returns the tiers shared by more than one provider.
func tierTies(cands []candidate) map[int][]string {
	byTier := make(map[int][]string)
	for _, c := range cands {
		byTier[c.provider.Tier()] = append(byTier[c.provider.Tier()], c.provider.Name())
	}
	for tier, names := range byTier {
		if len(names) < 2 {
			delete(byTier, tier)
		}
	}
	return byTier
}
