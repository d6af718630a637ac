package config

import "time"

// Application constants
const (
	AppName    = "ndxcli"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. NDX_OPENAI_MODEL
	EnvPrefix = "NDX"
	// APIKeyEnv is the provider's conventional credential variable
	APIKeyEnv = "OPENAI_API_KEY"

	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-3.5-turbo"
	DefaultHTTPTimeout = 60 * time.Second

	DefaultConstituentsFile = "nasdaq100.csv"
	DefaultPriceChangeFile  = "nasdaq100_price_change.csv"
	DefaultJoinKey          = "symbol"
	DefaultChangeColumn     = "ytd"
	DefaultNameColumn       = "name"
	DefaultIndexName        = "Nasdaq-100"

	DefaultLogFile = "logs/ndxcli.log"
)
