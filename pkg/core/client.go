package core

import (
	"fmt"
	"strconv"
)

// Credentials is the raw credential material returned by a secret store and
// consumed by a client's Load step. Keys follow the source's DSN template
// (user, password, host, port, database, plus free-form extras).
type Credentials map[string]any

// Lookup returns the credential value for key formatted as a string.
func (c Credentials) Lookup(key string) (string, bool) {
	v, ok := c[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, t != ""
	case int:
		return strconv.Itoa(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return fmt.Sprint(t), true
	}
}

// Redacted returns a copy safe for logging.
func (c Credentials) Redacted() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		switch k {
		case "password", "secret", "token", "private_key":
			out[k] = "***"
		default:
			out[k] = v
		}
	}
	return out
}
