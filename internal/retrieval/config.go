package retrieval

import "github.com/boxabirds/docqa/internal/pkg/envutil"

// Config sizes the retrieval steps. Zero or negative fields fall back to the
// defaults.
type Config struct {
	TopKEntities         int
	TopKTextUnits        int
	TopKRelationships    int
	TopKCommunityReports int
	TextUnitTokenBudget  int
	DirectTextUnitK      int
}

func DefaultConfig() Config {
	return Config{
		TopKEntities:         10,
		TopKTextUnits:        10,
		TopKRelationships:    20,
		TopKCommunityReports: 3,
		TextUnitTokenBudget:  4000,
		DirectTextUnitK:      10,
	}
}

// ConfigFromEnv reads the retrieval knobs, keeping defaults for unset or
// malformed values.
func ConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		TopKEntities:         envutil.Int("TOP_K_ENTITIES", def.TopKEntities),
		TopKTextUnits:        envutil.Int("TOP_K_TEXT_UNITS", def.TopKTextUnits),
		TopKRelationships:    envutil.Int("TOP_K_RELATIONSHIPS", def.TopKRelationships),
		TopKCommunityReports: envutil.Int("TOP_K_REPORTS", def.TopKCommunityReports),
		TextUnitTokenBudget:  envutil.Int("TEXT_UNIT_TOKEN_BUDGET", def.TextUnitTokenBudget),
		DirectTextUnitK:      envutil.Int("DIRECT_TEXT_UNIT_K", def.DirectTextUnitK),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TopKEntities <= 0 {
		c.TopKEntities = def.TopKEntities
	}
	if c.TopKTextUnits <= 0 {
		c.TopKTextUnits = def.TopKTextUnits
	}
	if c.TopKRelationships <= 0 {
		c.TopKRelationships = def.TopKRelationships
	}
	if c.TopKCommunityReports <= 0 {
		c.TopKCommunityReports = def.TopKCommunityReports
	}
	if c.TextUnitTokenBudget <= 0 {
		c.TextUnitTokenBudget = def.TextUnitTokenBudget
	}
	if c.DirectTextUnitK <= 0 {
		c.DirectTextUnitK = def.DirectTextUnitK
	}
	return c
}
