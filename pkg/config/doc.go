// Package config loads typed configuration from the process environment.
//
// Every infrastructure package of the service declares its own Config struct
// with `env` tags (pg.Config, redis.Config, email.Config and so on). Load
// parses such a struct with github.com/caarlos0/env/v11 after reading an
// optional .env file through github.com/joho/godotenv, and caches the result
// per type:
//
//	var pgCfg pg.Config
//	config.MustLoad(&pgCfg)
//
//	var verifyCfg verification.Config
//	if err := config.Load(&verifyCfg); err != nil {
//		return err
//	}
//
// LoadEnv reads additional files, for example a per-environment override,
// before the first Load. ResetCache drops cached values between tests.
//
// Failures wrap ErrParsingConfig or ErrLoadingEnvFile and can be matched with
// errors.Is.
package config
