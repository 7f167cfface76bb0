package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kunal1000-star/RouteNew-sub010/internal/health"
	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

func allTiers() map[string]int {
	return map[string]int{
		"groq": 1, "cerebras": 2, "gemini": 3,
		"openrouter": 4, "mistral": 5, "together": 6,
	}
}

func TestChain_NoDuplicates(t *testing.T) {
	reg := health.NewRegistry(allTiers())
	s := NewSelector(reg)

	for _, qt := range []models.QueryType{models.QueryTimeSensitive, models.QueryAppData, models.QueryGeneral} {
		chain := s.Chain(qt, "gemini")
		seen := make(map[string]bool)
		for _, name := range chain {
			assert.False(t, seen[name], "chain for %s repeats %s", qt, name)
			seen[name] = true
		}
	}
}

func TestChain_TimeSensitiveStartsAtGemini(t *testing.T) {
	reg := health.NewRegistry(allTiers())
	s := NewSelector(reg)

	chain := s.Chain(models.QueryTimeSensitive, "")
	assert.Equal(t, "gemini", chain[0])
	assert.Equal(t, "groq", chain[1])
}

func TestChain_UnhealthyFilteredOut(t *testing.T) {
	reg := health.NewRegistry(allTiers())
	s := NewSelector(reg)

	reg.MarkUnhealthy("gemini")

	chain := s.Chain(models.QueryTimeSensitive, "")
	assert.Equal(t, "groq", chain[0], "unhealthy head drops, next entry moves up")
	assert.NotContains(t, chain, "gemini")
}

func TestChain_FiltersAtSelectionTimeWithoutRebuild(t *testing.T) {
	reg := health.NewRegistry(allTiers())
	s := NewSelector(reg)

	// Downed between sweeps by an attempt failure; no Rebuild happened.
	reg.MarkUnhealthy("groq")

	chain := s.Chain(models.QueryGeneral, "")
	assert.NotContains(t, chain, "groq")
}

func TestChain_PreferredFirstEvenIfUnhealthy(t *testing.T) {
	reg := health.NewRegistry(allTiers())
	s := NewSelector(reg)

	reg.MarkUnhealthy("mistral")

	chain := s.Chain(models.QueryGeneral, "mistral")
	assert.Equal(t, "mistral", chain[0], "caller intent wins over the health filter at position 0")
	assert.Equal(t, 1, count(chain, "mistral"))
}

func TestChain_PreferredAlreadyInBaseNotDuplicated(t *testing.T) {
	reg := health.NewRegistry(allTiers())
	s := NewSelector(reg)

	chain := s.Chain(models.QueryGeneral, "cerebras")
	assert.Equal(t, "cerebras", chain[0])
	assert.Equal(t, 1, count(chain, "cerebras"))
}

func TestChain_PermanentlyUnhealthyPreferredExcluded(t *testing.T) {
	reg := health.NewRegistry(allTiers())
	s := NewSelector(reg)

	reg.MarkPermanentlyUnhealthy("together")

	chain := s.Chain(models.QueryGeneral, "together")
	assert.NotContains(t, chain, "together",
		"a provider excluded at startup is not revived by preference")
}

func TestRebuild_ReflectsSweepResults(t *testing.T) {
	reg := health.NewRegistry(allTiers())
	s := NewSelector(reg)

	reg.MarkUnhealthy("groq")
	reg.MarkUnhealthy("cerebras")
	s.Rebuild()

	chain := s.Chain(models.QueryGeneral, "")
	assert.Equal(t, "gemini", chain[0])

	reg.MarkHealthy("groq", 10)
	s.Rebuild()

	chain = s.Chain(models.QueryGeneral, "")
	assert.Equal(t, "groq", chain[0])
}

func count(chain []string, name string) int {
	n := 0
	for _, c := range chain {
		if c == name {
			n++
		}
	}
	return n
}
