package urgency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestClassifyTelemetry(t *testing.T) {
	testCases := []struct {
		name            string
		obs             Telemetry
		expectedScore   int
		expectedLevel   Level
		expectedFactors []string
	}{
		{
			name:            "high temperature only",
			obs:             Telemetry{Temperature: f(35)},
			expectedScore:   10,
			expectedLevel:   LevelLow,
			expectedFactors: []string{"high temperature"},
		},
		{
			name:          "all fields absent",
			obs:           Telemetry{},
			expectedScore: 0,
			expectedLevel: LevelLow,
		},
		{
			name:          "fields present but within normal range",
			obs:           Telemetry{Temperature: f(22), Humidity: f(55), Distance: f(400), AccelerometerX: f(0.2)},
			expectedScore: 0,
			expectedLevel: LevelLow,
		},
		{
			name:            "all four rules fire and still bucket Low",
			obs:             Telemetry{Temperature: f(31), Humidity: f(10), Distance: f(50), AccelerometerZ: f(1.5)},
			expectedScore:   50,
			expectedLevel:   LevelLow,
			expectedFactors: []string{"high temperature", "low humidity", "object proximity", "sudden movement"},
		},
		{
			name:            "negative accelerometer axis counts by magnitude",
			obs:             Telemetry{AccelerometerY: f(-2.3)},
			expectedScore:   20,
			expectedLevel:   LevelLow,
			expectedFactors: []string{"sudden movement"},
		},
		{
			name:            "boundary values do not trigger rules",
			obs:             Telemetry{Temperature: f(30), Humidity: f(20), Distance: f(100), AccelerometerX: f(1)},
			expectedScore:   0,
			expectedLevel:   LevelLow,
			expectedFactors: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.obs)
			assert.Equal(t, tc.expectedScore, got.Score)
			assert.Equal(t, tc.expectedLevel, got.Level)
			assert.Equal(t, tc.expectedFactors, got.Factors)
		})
	}
}

func TestClassifyReport(t *testing.T) {
	testCases := []struct {
		name            string
		obs             Report
		expectedScore   int
		expectedLevel   Level
		expectedFactors []string
	}{
		{
			name:            "fire keyword relayed via IoT",
			obs:             Report{Description: "fire on the third floor", Source: "IoT"},
			expectedScore:   40,
			expectedLevel:   LevelMedium,
			expectedFactors: []string{"keyword: fire", "source: IoT"},
		},
		{
			name:            "keywords are case-insensitive",
			obs:             Report{Description: "PANIC in the lobby", Source: "manual"},
			expectedScore:   20,
			expectedLevel:   LevelLow,
			expectedFactors: []string{"keyword: panic"},
		},
		{
			name:            "multiple keywords accumulate in rule order",
			obs:             Report{Description: "flood and fire after the emergency", Source: "manual"},
			expectedScore:   70,
			expectedLevel:   LevelHigh,
			expectedFactors: []string{"keyword: emergency", "keyword: flood", "keyword: fire"},
		},
		{
			name:            "every rule fires",
			obs:             Report{Description: "panic: emergency flood and fire", Source: "IoT"},
			expectedScore:   100,
			expectedLevel:   LevelCritical,
			expectedFactors: []string{"keyword: panic", "keyword: emergency", "keyword: flood", "keyword: fire", "source: IoT"},
		},
		{
			name:          "no keywords manual source",
			obs:           Report{Description: "minor scrape on the gate", Source: "manual"},
			expectedScore: 0,
			expectedLevel: LevelLow,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.obs)
			assert.Equal(t, tc.expectedScore, got.Score)
			assert.Equal(t, tc.expectedLevel, got.Level)
			assert.Equal(t, tc.expectedFactors, got.Factors)
		})
	}
}

// Bucket boundaries are inclusive on the lower bound of each tier.
func TestBucketBoundaries(t *testing.T) {
	boundaries := map[int]Level{
		0:   LevelLow,
		39:  LevelLow,
		40:  LevelMedium,
		59:  LevelMedium,
		60:  LevelHigh,
		79:  LevelHigh,
		80:  LevelCritical,
		100: LevelCritical,
	}

	for score, expected := range boundaries {
		got := bucket(score, nil)
		assert.Equal(t, expected, got.Level, "score %d", score)
		assert.Equal(t, score, got.Score)
	}
}
