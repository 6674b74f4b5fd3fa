package client

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// DecodeCredentials decodes raw credential material into out, a pointer to a
// struct with mapstructure tags. Numbers given as strings (and vice versa)
// are converted.
func DecodeCredentials(creds core.Credentials, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to build credential decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(creds)); err != nil {
		return fmt.Errorf("failed to decode credentials: %w", err)
	}
	return nil
}

// RequireKeys checks that every key has a non-empty value.
func RequireKeys(creds core.Credentials, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := creds.Lookup(k); !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingCredentialsError{Keys: missing}
	}
	return nil
}

// MissingCredentialsError lists required credential keys that were absent.
type MissingCredentialsError struct {
	Keys []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing required credentials: %s", strings.Join(e.Keys, ", "))
}
