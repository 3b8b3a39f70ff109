package model

// ================ Config ================

type AgentConfig struct {
	Model       string  `envconfig:"AGENT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"AGENT_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"AGENT_TEMPERATURE" default:"0.2"`
	MaxRounds   int     `envconfig:"AGENT_MAX_ROUNDS" default:"5"`
}

type FeatureConfig struct {
	SprintSupport   bool `envconfig:"FEATURE_SPRINT_SUPPORT" default:"false"`
	SmartAssignment bool `envconfig:"FEATURE_SMART_ASSIGNMENT" default:"false"`
}

type TrackerConfig struct {
	LookbackDays int    `envconfig:"TRACKER_LOOKBACK_DAYS" default:"7"`
	CacheTTL     string `envconfig:"TRACKER_CACHE_TTL" default:"5m"`
}
