package domain

// Standard environment variable names consumed by the target program. Every
// profile projects the same fixed set; the names must match exactly.
const (
	VarAuthToken      = "ANTHROPIC_AUTH_TOKEN"
	VarBaseURL        = "ANTHROPIC_BASE_URL"
	VarModelMain      = "ANTHROPIC_MODEL"
	VarModelHaiku     = "ANTHROPIC_DEFAULT_HAIKU_MODEL"
	VarModelSonnet    = "ANTHROPIC_DEFAULT_SONNET_MODEL"
	VarModelOpus      = "ANTHROPIC_DEFAULT_OPUS_MODEL"
	VarModelSubagent  = "CLAUDE_CODE_SUBAGENT_MODEL"
	VarModelSmall     = "ANTHROPIC_SMALL_FAST_MODEL"
	VarDisableTraffic = "CLAUDE_CODE_DISABLE_NONESSENTIAL_TRAFFIC"
)

// Reserved prefixes for standard variables. Custom variables must not use
// them, otherwise a custom entry could shadow a standard field during
// projection.
const (
	ReservedPrefixAnthropic  = "ANTHROPIC_"
	ReservedPrefixClaudeCode = "CLAUDE_CODE_"
)

// StandardVarNames returns the fixed set of standard variable names in the
// canonical encode order.
func StandardVarNames() []string {
	return []string{
		VarAuthToken,
		VarBaseURL,
		VarModelMain,
		VarModelHaiku,
		VarModelSonnet,
		VarModelOpus,
		VarModelSubagent,
		VarModelSmall,
		VarDisableTraffic,
	}
}

// EnvVar is a single environment variable assignment.
type EnvVar struct {
	Name  string
	Value string
}

// TierModels holds the per-tier model identifiers of a profile. Tiers left
// empty at creation time default to Main.
type TierModels struct {
	Main     string
	Haiku    string
	Sonnet   string
	Opus     string
	Subagent string
	Small    string
}

// FillDefaults copies Main into every unset tier.
func (t *TierModels) FillDefaults() {
	if t.Haiku == "" {
		t.Haiku = t.Main
	}
	if t.Sonnet == "" {
		t.Sonnet = t.Main
	}
	if t.Opus == "" {
		t.Opus = t.Main
	}
	if t.Subagent == "" {
		t.Subagent = t.Main
	}
	if t.Small == "" {
		t.Small = t.Main
	}
}

// ProviderProfile is one configured provider credential set.
type ProviderProfile struct {
	Name    string
	BaseURL string
	// APIKey is a secret. Display code must redact it; it is never logged
	// in full.
	APIKey string
	Models TierModels
	// DisableNonessentialTraffic is always emitted; the toggle is an
	// extension point and defaults to on.
	DisableNonessentialTraffic bool
	// CustomVars keeps insertion order; names follow identifier syntax and
	// never use the reserved prefixes.
	CustomVars []EnvVar
}

// NewProfile returns a profile with creation-time defaults applied.
func NewProfile(name, baseURL, apiKey string, models TierModels) *ProviderProfile {
	models.FillDefaults()
	return &ProviderProfile{
		Name:                       name,
		BaseURL:                    baseURL,
		APIKey:                     apiKey,
		Models:                     models,
		DisableNonessentialTraffic: true,
	}
}

// StandardVars returns the profile's standard fields as assignments in the
// canonical encode order.
func (p *ProviderProfile) StandardVars() []EnvVar {
	traffic := "0"
	if p.DisableNonessentialTraffic {
		traffic = "1"
	}
	return []EnvVar{
		{Name: VarAuthToken, Value: p.APIKey},
		{Name: VarBaseURL, Value: p.BaseURL},
		{Name: VarModelMain, Value: p.Models.Main},
		{Name: VarModelHaiku, Value: p.Models.Haiku},
		{Name: VarModelSonnet, Value: p.Models.Sonnet},
		{Name: VarModelOpus, Value: p.Models.Opus},
		{Name: VarModelSubagent, Value: p.Models.Subagent},
		{Name: VarModelSmall, Value: p.Models.Small},
		{Name: VarDisableTraffic, Value: traffic},
	}
}

// CustomVar returns the value of a custom variable and whether it exists.
func (p *ProviderProfile) CustomVar(name string) (string, bool) {
	for _, v := range p.CustomVars {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}
