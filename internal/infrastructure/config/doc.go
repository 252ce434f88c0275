// Package config handles loading and validating Feedline Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with FEEDLINE_* environment variables
//   - Validation of required fields (all problems are reported together)
//
// The JWT signing secret is read once at startup and never changes while the
// process runs. Rotating it (restart with a new value) invalidates every
// outstanding token immediately.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
