// Package secret resolves credentials referenced from check options.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider + Registry)
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:PG_DSN
//   - Inline use:  Bearer secretref:file:api_token
//
// The env and file providers are registered in DefaultRegistry.
package secret
