package config

import (
	"strconv"
	"time"
)

type SecurityConfig interface {
	GetTokenSecret() string
	GetTokenAudience() string
	GetTokenIssuer() string
	GetClockSkew() time.Duration
	GetEnableRateLimiting() bool
	GetRateLimitWindow() time.Duration
	GetRateLimitMaxRequests() int
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetTokenSecret() string {
	return GetEnv("TOKEN_SECRET", "")
}

func (Security) GetTokenAudience() string {
	return GetEnv("TOKEN_AUDIENCE", "user-service")
}

func (Security) GetTokenIssuer() string {
	return GetEnv("TOKEN_ISSUER", "")
}

func (Security) GetClockSkew() time.Duration {
	return durationEnv("TOKEN_CLOCK_SKEW", 30*time.Second)
}

func (Security) GetEnableRateLimiting() bool {
	return GetEnv("ENABLE_RATE_LIMITING", "false") == "true"
}

func (Security) GetRateLimitWindow() time.Duration {
	return durationEnv("RATE_LIMIT_WINDOW", time.Minute)
}

func (Security) GetRateLimitMaxRequests() int {
	return intEnv("RATE_LIMIT_MAX_REQUESTS", 100)
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func intEnv(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(GetEnv(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
