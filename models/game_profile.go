package models

import "time"

// GameProfile is a reusable configuration template. A tournament copies the
// profile's stat/scoring/tiebreaker/pairing config at creation time and edits
// its own copy afterwards.
type GameProfile struct {
	ID               GameProfileID    `json:"id" db:"id"`
	Name             string           `json:"name" db:"name"`
	Slug             string           `json:"slug" db:"slug"`
	Description      *string          `json:"description,omitempty" db:"description"`
	StatDefinitions  StatDefinitions  `json:"stat_definitions" db:"stat_definitions"`
	ScoringRules     ScoringRules     `json:"scoring_rules" db:"scoring_rules"`
	TiebreakerConfig TiebreakerConfig `json:"tiebreaker_config" db:"tiebreaker_config"`
	PairingConfig    PairingConfig    `json:"pairing_config" db:"pairing_config"`
	// System profiles ship with the installation; only their description may
	// be edited.
	IsSystem  bool      `json:"is_system" db:"is_system"`
	BannerKey *string   `json:"-" db:"banner_key"`
	BannerURL *string   `json:"banner_url,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (p *GameProfile) ValidateConfig() error {
	if err := p.StatDefinitions.Validate(); err != nil {
		return err
	}
	if err := p.ScoringRules.Validate(p.StatDefinitions); err != nil {
		return err
	}
	if err := p.TiebreakerConfig.Validate(p.StatDefinitions); err != nil {
		return err
	}
	return p.PairingConfig.Validate(p.StatDefinitions)
}
