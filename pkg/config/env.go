package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

const EnvPrefix = "SPA_"

// Environ returns the `SPA_*` variables from `environ` (formatted as [os.Environ]) with the prefix removed.
func Environ(environ []string) map[string]string {
	vars := make(map[string]string)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, EnvPrefix) {
			continue
		}
		vars[strings.TrimPrefix(k, EnvPrefix)] = v
	}
	return vars
}

// ApplyEnv overrides fields with the variables set in `vars` (see [Environ]). Unset variables leave the field
// unchanged. Lists are comma separated.
func (c *Config) ApplyEnv(vars map[string]string) error {
	input := make(map[string]any, len(vars))
	for k, v := range vars {
		input[k] = v
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToDurationHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("invalid %s environment: %w", EnvPrefix, err)
	}
	return nil
}

// LoadEnv applies the process environment.
func (c *Config) LoadEnv() error {
	return c.ApplyEnv(Environ(os.Environ()))
}

func stringToDurationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(Duration(0)) {
		return data, nil
	}
	d, err := time.ParseDuration(data.(string))
	if err != nil {
		return nil, err
	}
	return Duration(d), nil
}
