// Package config loads typed configuration from the environment.
//
// Structs are described with caarlos0/env tags and parsed once per type;
// later calls are served from a process-wide cache. Before the first parse
// the default .env file is read with godotenv when it exists. Extra files
// can be loaded explicitly with LoadEnv.
//
//	type ServeConfig struct {
//		Addr  string `env:"FORMGUARD_ADDR" envDefault:":8080"`
//		Pages string `env:"FORMGUARD_PAGES" envDefault:"./pages"`
//	}
//
//	var cfg ServeConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Reload bypasses the cache, ResetCache clears it. Both exist mostly for
// tests and for picking up an edited .env file at runtime.
package config
