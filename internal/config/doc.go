// Package config provides centralized configuration management for ndxcli.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (NDX_CONFIG, ./config.yaml or ./configs/config.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern NDX_<SECTION>_<FIELD>:
//
//	NDX_OPENAI_MODEL=gpt-3.5-turbo
//	NDX_INPUT_CONSTITUENTS_FILE=nasdaq100.csv
//	NDX_ENRICHMENT_CONCURRENCY=4
//	NDX_LOGGING_LEVEL=debug
//
// The credential is the exception: it is read from OPENAI_API_KEY (or
// NDX_OPENAI_API_KEY). Its absence is a ConfigError raised before any
// input file is opened.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
