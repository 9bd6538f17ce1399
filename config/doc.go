// Package config loads and validates guard configuration for services
// embedding guardkit.
//
// It uses Viper to merge config.yml files with environment variables and
// godotenv-loaded .env files, then validates the result with struct tags.
// The Guards map turns into ready-to-use resilience.Guard instances:
//
//	var cfg config.Config
//	if err := config.Load("orders-api", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
//	guard := cfg.Guard("payments")
//	result, err := resilience.ExecuteGuarded(ctx, guard, callPayments)
//
// Environment variables override file values using underscore-separated
// paths (e.g. GUARDS_PAYMENTS_TIMEOUT, LOGGING_LEVEL).
package config
