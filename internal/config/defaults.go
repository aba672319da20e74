package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultDatabaseURL      = "postgres://localhost:5432/chainsight?sslmode=disable"
	DefaultStatementTimeout = 15 * time.Second

	DefaultMaxRows          = 1000
	DefaultMaxJoins         = 2
	DefaultMaxSubqueryDepth = 1

	DefaultCacheTTL        = 60 * time.Second
	DefaultCacheMaxEntries = 256

	DefaultSessionMaxTurns = 20
	DefaultSessionIdle     = 30 * time.Minute

	DefaultMinIntentConfidence = 0.35
	DefaultTemplateConfidence  = 0.9
	DefaultModelConfidence     = 0.4

	DefaultModelTimeout      = 30 * time.Second
	DefaultMaxQuestionLength = 2000

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}
