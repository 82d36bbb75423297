// Package urgency implements the rule-based urgency classifier. It is a pure
// function over a sealed observation union: given a telemetry sample or a
// textual report it always produces a classification and never fails. Absent
// optional fields simply do not trigger their rule.
package urgency

import "strings"

// Level is the closed set of urgency tiers.
type Level string

const (
	LevelLow      Level = "Low"
	LevelMedium   Level = "Medium"
	LevelHigh     Level = "High"
	LevelCritical Level = "Critical"
)

// Classification is the classifier output: the bucketed level, the raw
// additive score, and the ordered labels of every rule that fired. Factors
// are kept as an audit trail so operators can see why an incident escalated.
type Classification struct {
	Level   Level    `json:"level"`
	Score   int      `json:"score"`
	Factors []string `json:"factors"`
}

// Observation is the sealed union of classifiable inputs.
type Observation interface {
	observation()
}

// Telemetry is a normalized sensor sample. Any subset of fields may be nil.
type Telemetry struct {
	Temperature    *float64
	Humidity       *float64
	Distance       *float64
	AccelerometerX *float64
	AccelerometerY *float64
	AccelerometerZ *float64
}

func (Telemetry) observation() {}

// Report is a textual incident report plus its source tag.
type Report struct {
	Description string
	Source      string
}

func (Report) observation() {}

// Score thresholds for level bucketing. Lower bounds are inclusive.
const (
	criticalThreshold = 80
	highThreshold     = 60
	mediumThreshold   = 40
)

// Rule weights.
const (
	weightHighTemperature = 10
	weightLowHumidity     = 5
	weightProximity       = 15
	weightSuddenMovement  = 20

	weightKeywordPanic     = 20
	weightKeywordEmergency = 15
	weightKeywordFlood     = 25
	weightKeywordFire      = 30
	weightSourceIoT        = 10
)

// Classify evaluates every rule for the observation's variant, sums the
// contributions and buckets the total. Rules are independent; multiple
// matches all accumulate and the factor list preserves rule order.
func Classify(obs Observation) Classification {
	switch o := obs.(type) {
	case Telemetry:
		return classifyTelemetry(o)
	case Report:
		return classifyReport(o)
	}
	// Unreachable for the sealed union, but the classifier stays total.
	return bucket(0, nil)
}

func classifyTelemetry(t Telemetry) Classification {
	score := 0
	var factors []string

	if t.Temperature != nil && *t.Temperature > 30 {
		score += weightHighTemperature
		factors = append(factors, "high temperature")
	}
	if t.Humidity != nil && *t.Humidity < 20 {
		score += weightLowHumidity
		factors = append(factors, "low humidity")
	}
	if t.Distance != nil && *t.Distance < 100 {
		score += weightProximity
		factors = append(factors, "object proximity")
	}
	if exceedsMagnitude(t.AccelerometerX, 1) || exceedsMagnitude(t.AccelerometerY, 1) || exceedsMagnitude(t.AccelerometerZ, 1) {
		score += weightSuddenMovement
		factors = append(factors, "sudden movement")
	}

	return bucket(score, factors)
}

var keywordRules = []struct {
	keyword string
	weight  int
}{
	{"panic", weightKeywordPanic},
	{"emergency", weightKeywordEmergency},
	{"flood", weightKeywordFlood},
	{"fire", weightKeywordFire},
}

func classifyReport(r Report) Classification {
	score := 0
	var factors []string

	description := strings.ToLower(r.Description)
	for _, rule := range keywordRules {
		if strings.Contains(description, rule.keyword) {
			score += rule.weight
			factors = append(factors, "keyword: "+rule.keyword)
		}
	}

	// Reports relayed through the telemetry path are inherently more urgent
	// even when manually re-filed.
	if r.Source == "IoT" {
		score += weightSourceIoT
		factors = append(factors, "source: IoT")
	}

	return bucket(score, factors)
}

func exceedsMagnitude(v *float64, limit float64) bool {
	if v == nil {
		return false
	}
	m := *v
	if m < 0 {
		m = -m
	}
	return m > limit
}

func bucket(score int, factors []string) Classification {
	var level Level
	switch {
	case score >= criticalThreshold:
		level = LevelCritical
	case score >= highThreshold:
		level = LevelHigh
	case score >= mediumThreshold:
		level = LevelMedium
	default:
		level = LevelLow
	}
	return Classification{Level: level, Score: score, Factors: factors}
}
