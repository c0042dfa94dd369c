package config

import (
	"encoding/json"
	"fmt"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes environment variables that override configuration.
const EnvPrefix = "HEALTHRUN_"

// Source is one configuration layer.
type Source struct {
	Provider func(k *koanf.Koanf) koanf.Provider
	Parser   koanf.Parser
	Options  []koanf.Option
}

// NewJSONFileSource loads configuration from a JSON file.
func NewJSONFileSource(path string) *Source {
	return &Source{
		Provider: func(_ *koanf.Koanf) koanf.Provider {
			return file.Provider(path)
		},
		Parser: kjson.Parser(),
	}
}

// NewJSONBytesSource loads configuration from an in-memory JSON document.
func NewJSONBytesSource(raw []byte) *Source {
	return &Source{
		Provider: func(_ *koanf.Koanf) koanf.Provider {
			return rawbytes.Provider(raw)
		},
		Parser: kjson.Parser(),
	}
}

// NewEnvVarSource loads HEALTHRUN_ variables. A double underscore
// separates key segments.
func NewEnvVarSource() *Source {
	return &Source{
		Provider: func(_ *koanf.Koanf) koanf.Provider {
			return env.Provider(EnvPrefix, ".", envKey)
		},
	}
}

// envKey maps HEALTHRUN_SERVER__CACHE_TTL to server.cache_ttl.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// NewPFlagSource maps flags named like "server.cache-ttl" onto
// server.cache_ttl. Flags listed in skip are not configuration keys.
func NewPFlagSource(flagSet *pflag.FlagSet, skip ...string) *Source {
	ignored := make(map[string]bool, len(skip))
	for _, name := range skip {
		ignored[name] = true
	}
	return &Source{
		Provider: func(k *koanf.Koanf) koanf.Provider {
			return posflag.ProviderWithFlag(flagSet, ".", k, func(f *pflag.Flag) (string, interface{}) {
				if ignored[f.Name] {
					return "", nil
				}
				return strings.ReplaceAll(f.Name, "-", "_"), f.Value.String()
			})
		},
	}
}

// LoadStruct merges v into k through JSON so omitempty fields do not
// overwrite values already loaded.
func LoadStruct(k *koanf.Koanf, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal config to json: %w", err)
	}

	if err := k.Load(rawbytes.Provider(raw), kjson.Parser()); err != nil {
		return fmt.Errorf("failed to load config from json bytes: %w", err)
	}

	return nil
}
