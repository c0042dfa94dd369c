// Package config loads healthrun configuration and builds a health.Registry
// from it.
//
// Configuration is layered with koanf. Later sources win:
//
//  1. DefaultConfig
//  2. a JSON file (NewJSONFileSource)
//  3. HEALTHRUN_ environment variables, "__" separating path segments
//     (HEALTHRUN_SERVER__ADDRESS sets server.address)
//  4. command-line flags (NewPFlagSource)
//
// Runners and their checks are JSON arrays so configured order is kept.
// Each check names a kind registered in a Kinds registry; the option map is
// passed through a secret.Resolver before the kind's factory sees it.
package config
