// Package cost prices provider usage.
package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	Serper    SerperRate    `yaml:"serper" mapstructure:"serper"`
	Icypeas   IcypeasRate   `yaml:"icypeas" mapstructure:"icypeas"`
	Match     TokenRate     `yaml:"match" mapstructure:"match"`
	Findymail FindymailRate `yaml:"findymail" mapstructure:"findymail"`
}

// SerperRate holds search pricing.
type SerperRate struct {
	PerThousandCredits float64 `yaml:"per_thousand_credits" mapstructure:"per_thousand_credits"`
}

// IcypeasRate holds enrichment pricing. Credits are reported for quota tracking.
type IcypeasRate struct {
	PerProfile        float64 `yaml:"per_profile" mapstructure:"per_profile"`
	CreditsPerProfile float64 `yaml:"credits_per_profile" mapstructure:"credits_per_profile"`
}

// TokenRate holds LLM pricing per million tokens.
type TokenRate struct {
	PerMTok float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// FindymailRate holds contact lookup pricing.
type FindymailRate struct {
	PerCredit float64 `yaml:"per_credit" mapstructure:"per_credit"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Serper computes the cost of search credits.
func (c *Calculator) Serper(credits int64) float64 {
	return (float64(credits) / 1000) * c.rates.Serper.PerThousandCredits
}

// Icypeas computes the cost of enriched profiles.
func (c *Calculator) Icypeas(profiles int64) float64 {
	return float64(profiles) * c.rates.Icypeas.PerProfile
}

// IcypeasCredits returns the credits consumed by enriched profiles.
func (c *Calculator) IcypeasCredits(profiles int64) float64 {
	return float64(profiles) * c.rates.Icypeas.CreditsPerProfile
}

// Match computes the cost of oracle tokens.
func (c *Calculator) Match(tokens int64) float64 {
	return (float64(tokens) / 1e6) * c.rates.Match.PerMTok
}

// Findymail computes the cost of contact credits.
func (c *Calculator) Findymail(credits int64) float64 {
	return float64(credits) * c.rates.Findymail.PerCredit
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Serper:    SerperRate{PerThousandCredits: 0.30},
		Icypeas:   IcypeasRate{PerProfile: 0.0025, CreditsPerProfile: 1.5},
		Match:     TokenRate{PerMTok: 0.40},
		Findymail: FindymailRate{PerCredit: 0.00599625},
	}
}
