package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Configuration value objects stored as JSONB. Scoring rules and tiebreakers
// are declarative data interpreted by the standings calculator; nothing here
// is subclassed or extended at runtime.

type StatType string

const (
	StatTypeInteger StatType = "integer"
	StatTypeDecimal StatType = "decimal"
	StatTypeBoolean StatType = "boolean"
)

func (t StatType) Valid() bool {
	switch t {
	case StatTypeInteger, StatTypeDecimal, StatTypeBoolean:
		return true
	}
	return false
}

type StatDefinition struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Type        StatType `json:"type"`
	MinValue    *float64 `json:"min_value,omitempty"`
	MaxValue    *float64 `json:"max_value,omitempty"`
	PerPlayer   bool     `json:"per_player"`
	Required    bool     `json:"required"`
	Description *string  `json:"description,omitempty"`
}

type StatDefinitions []StatDefinition

func (defs StatDefinitions) Find(key string) (StatDefinition, bool) {
	for _, d := range defs {
		if d.Key == key {
			return d, true
		}
	}
	return StatDefinition{}, false
}

func (defs StatDefinitions) Validate() error {
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if d.Key == "" {
			return errors.New("stat definition key must not be empty")
		}
		if seen[d.Key] {
			return fmt.Errorf("duplicate stat definition key %q", d.Key)
		}
		seen[d.Key] = true
		if !d.Type.Valid() {
			return fmt.Errorf("stat %q has unknown type %q", d.Key, d.Type)
		}
		if d.MinValue != nil && d.MaxValue != nil && *d.MinValue > *d.MaxValue {
			return fmt.Errorf("stat %q min_value exceeds max_value", d.Key)
		}
	}
	return nil
}

// ValidateStats checks a reported stat blob against the definitions:
// unknown keys are rejected, required keys must be present, numeric values
// must respect the configured bounds.
func (defs StatDefinitions) ValidateStats(stats StatMap) error {
	for key := range stats {
		if _, ok := defs.Find(key); !ok {
			return fmt.Errorf("unknown stat %q", key)
		}
	}
	for _, d := range defs {
		if !d.PerPlayer {
			continue
		}
		v, present := stats[d.Key]
		if !present {
			if d.Required {
				return fmt.Errorf("required stat %q is missing", d.Key)
			}
			continue
		}
		if d.Type == StatTypeBoolean && v != 0 && v != 1 {
			return fmt.Errorf("stat %q must be 0 or 1", d.Key)
		}
		if d.MinValue != nil && v < *d.MinValue {
			return fmt.Errorf("stat %q below minimum %v", d.Key, *d.MinValue)
		}
		if d.MaxValue != nil && v > *d.MaxValue {
			return fmt.Errorf("stat %q above maximum %v", d.Key, *d.MaxValue)
		}
	}
	return nil
}

// Outcome is a match result seen from one participant's side. Scoring rule
// conditions compare against outcomes, not raw match results, so the same
// rule set applies to both seats.
type Outcome string

const (
	OutcomeWin        Outcome = "win"
	OutcomeLoss       Outcome = "loss"
	OutcomeDraw       Outcome = "draw"
	OutcomeDoubleLoss Outcome = "double_loss"
	OutcomeBye        Outcome = "bye"
)

type ConditionType string

const (
	ConditionResultEquals     ConditionType = "result_equals"
	ConditionStatComparison   ConditionType = "stat_comparison"
	ConditionStatThreshold    ConditionType = "stat_threshold"
	ConditionMarginDifference ConditionType = "margin_difference"
)

type CompareOperator string

const (
	OperatorEq  CompareOperator = "eq"
	OperatorGt  CompareOperator = "gt"
	OperatorGte CompareOperator = "gte"
	OperatorLt  CompareOperator = "lt"
	OperatorLte CompareOperator = "lte"
)

func (op CompareOperator) Valid() bool {
	switch op {
	case OperatorEq, OperatorGt, OperatorGte, OperatorLt, OperatorLte:
		return true
	}
	return false
}

func (op CompareOperator) Compare(a, b float64) bool {
	switch op {
	case OperatorEq:
		return a == b
	case OperatorGt:
		return a > b
	case OperatorGte:
		return a >= b
	case OperatorLt:
		return a < b
	case OperatorLte:
		return a <= b
	}
	return false
}

type RuleCondition struct {
	Type        ConditionType    `json:"type"`
	ResultValue *Outcome         `json:"result_value,omitempty"`
	Stat        *string          `json:"stat,omitempty"`
	Operator    *CompareOperator `json:"operator,omitempty"`
	Value       *float64         `json:"value,omitempty"`
}

type ScoringRule struct {
	Name      string        `json:"name"`
	Condition RuleCondition `json:"condition"`
	Points    float64       `json:"points"`
	// Lower priority value wins when several rules match the same match.
	Priority int `json:"priority"`
}

type ScoringRules []ScoringRule

func (rules ScoringRules) Validate(stats StatDefinitions) error {
	if len(rules) == 0 {
		return errors.New("at least one scoring rule is required")
	}
	for _, r := range rules {
		if r.Name == "" {
			return errors.New("scoring rule name must not be empty")
		}
		c := r.Condition
		switch c.Type {
		case ConditionResultEquals:
			if c.ResultValue == nil {
				return fmt.Errorf("rule %q: result_equals requires result_value", r.Name)
			}
		case ConditionStatComparison:
			if c.Stat == nil || c.Operator == nil {
				return fmt.Errorf("rule %q: stat_comparison requires stat and operator", r.Name)
			}
		case ConditionStatThreshold:
			if c.Stat == nil || c.Operator == nil || c.Value == nil {
				return fmt.Errorf("rule %q: stat_threshold requires stat, operator and value", r.Name)
			}
		case ConditionMarginDifference:
			if c.Operator == nil || c.Value == nil {
				return fmt.Errorf("rule %q: margin_difference requires operator and value", r.Name)
			}
		default:
			return fmt.Errorf("rule %q: unknown condition type %q", r.Name, c.Type)
		}
		if c.Operator != nil && !c.Operator.Valid() {
			return fmt.Errorf("rule %q: unknown operator %q", r.Name, *c.Operator)
		}
		if c.Stat != nil {
			if _, ok := stats.Find(*c.Stat); !ok {
				return fmt.Errorf("rule %q references undefined stat %q", r.Name, *c.Stat)
			}
		}
	}
	return nil
}

type TiebreakerType string

const (
	TiebreakerBuchholz       TiebreakerType = "buchholz"
	TiebreakerMedianBuchholz TiebreakerType = "median_buchholz"
	TiebreakerProgressive    TiebreakerType = "progressive"
	TiebreakerOpponentWinPct TiebreakerType = "opponent_win_percentage"
	TiebreakerStat           TiebreakerType = "stat"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type TiebreakerDefinition struct {
	Key       string         `json:"key"`
	Name      string         `json:"name"`
	Type      TiebreakerType `json:"type"`
	Stat      *string        `json:"stat,omitempty"`
	Direction SortDirection  `json:"direction"`
	MinValue  *float64       `json:"min_value,omitempty"`
	// Score a bye opponent counts for in Buchholz-family formulas.
	// Unset byes count as 0.
	ByeOpponentScore *float64 `json:"bye_opponent_score,omitempty"`
}

type TiebreakerConfig []TiebreakerDefinition

// ByeOpponentScore resolves the bye opponent score for the whole table: the
// first definition carrying one wins, since Buchholz values are computed
// once per standing.
func (cfg TiebreakerConfig) ByeOpponentScore() float64 {
	for _, tb := range cfg {
		if tb.ByeOpponentScore != nil {
			return *tb.ByeOpponentScore
		}
	}
	return 0
}

func (cfg TiebreakerConfig) Validate(stats StatDefinitions) error {
	seen := make(map[string]bool, len(cfg))
	for _, tb := range cfg {
		if tb.Key == "" {
			return errors.New("tiebreaker key must not be empty")
		}
		if seen[tb.Key] {
			return fmt.Errorf("duplicate tiebreaker key %q", tb.Key)
		}
		seen[tb.Key] = true
		switch tb.Type {
		case TiebreakerBuchholz, TiebreakerMedianBuchholz, TiebreakerProgressive, TiebreakerOpponentWinPct:
		case TiebreakerStat:
			if tb.Stat == nil {
				return fmt.Errorf("tiebreaker %q: stat type requires stat key", tb.Key)
			}
			if _, ok := stats.Find(*tb.Stat); !ok {
				return fmt.Errorf("tiebreaker %q references undefined stat %q", tb.Key, *tb.Stat)
			}
		default:
			return fmt.Errorf("tiebreaker %q has unknown type %q", tb.Key, tb.Type)
		}
		if tb.Direction != SortAsc && tb.Direction != SortDesc {
			return fmt.Errorf("tiebreaker %q has unknown direction %q", tb.Key, tb.Direction)
		}
		if tb.ByeOpponentScore != nil && tb.Type != TiebreakerBuchholz && tb.Type != TiebreakerMedianBuchholz {
			return fmt.Errorf("tiebreaker %q: bye_opponent_score applies only to Buchholz formulas", tb.Key)
		}
	}
	return nil
}

type PairingMethod string

const PairingMethodSwiss PairingMethod = "swiss"

type PairingSortBy string

const (
	PairingSortByPoints PairingSortBy = "points"
	PairingSortBySeed   PairingSortBy = "seed"
	PairingSortByStat   PairingSortBy = "stat"
)

type ByeAssignment string

const (
	ByeAssignLowestRanked ByeAssignment = "lowest_ranked"
	ByeAssignFewestByes   ByeAssignment = "fewest_byes"
)

type PairingConfig struct {
	Method           PairingMethod `json:"method"`
	SortBy           PairingSortBy `json:"sort_by"`
	SortByStat       *string       `json:"sort_by_stat,omitempty"`
	AvoidRematches   bool          `json:"avoid_rematches"`
	MaxByesPerPlayer int           `json:"max_byes_per_player"`
	ByeAssignment    ByeAssignment `json:"bye_assignment"`
}

func (cfg PairingConfig) Validate(stats StatDefinitions) error {
	if cfg.Method != PairingMethodSwiss {
		return fmt.Errorf("unknown pairing method %q", cfg.Method)
	}
	switch cfg.SortBy {
	case PairingSortByPoints, PairingSortBySeed:
	case PairingSortByStat:
		if cfg.SortByStat == nil {
			return errors.New("pairing sort_by stat requires sort_by_stat")
		}
		if _, ok := stats.Find(*cfg.SortByStat); !ok {
			return fmt.Errorf("pairing sort_by_stat references undefined stat %q", *cfg.SortByStat)
		}
	default:
		return fmt.Errorf("unknown pairing sort_by %q", cfg.SortBy)
	}
	if cfg.MaxByesPerPlayer < 1 {
		return errors.New("max_byes_per_player must be at least 1")
	}
	if cfg.ByeAssignment != ByeAssignLowestRanked && cfg.ByeAssignment != ByeAssignFewestByes {
		return fmt.Errorf("unknown bye_assignment %q", cfg.ByeAssignment)
	}
	return nil
}

// StatMap holds arbitrary numeric stats keyed by stat definition key.
// Boolean stats are stored as 0/1.
type StatMap map[string]float64

func jsonValue(v interface{}) (driver.Value, error) {
	return json.Marshal(v)
}

func jsonScan(src, dst interface{}) error {
	if src == nil {
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, dst)
	case string:
		return json.Unmarshal([]byte(data), dst)
	default:
		return fmt.Errorf("unsupported scan source %T for JSON column", src)
	}
}

func (defs StatDefinitions) Value() (driver.Value, error) { return jsonValue(defs) }
func (defs *StatDefinitions) Scan(src interface{}) error  { return jsonScan(src, defs) }

func (rules ScoringRules) Value() (driver.Value, error) { return jsonValue(rules) }
func (rules *ScoringRules) Scan(src interface{}) error  { return jsonScan(src, rules) }

func (cfg TiebreakerConfig) Value() (driver.Value, error) { return jsonValue(cfg) }
func (cfg *TiebreakerConfig) Scan(src interface{}) error  { return jsonScan(src, cfg) }

func (cfg PairingConfig) Value() (driver.Value, error) { return jsonValue(cfg) }
func (cfg *PairingConfig) Scan(src interface{}) error  { return jsonScan(src, cfg) }

func (m StatMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *StatMap) Scan(src interface{}) error  { return jsonScan(src, m) }
