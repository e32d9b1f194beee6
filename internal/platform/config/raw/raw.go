// Package raw reads the environment for packages that boot before the logger,
// so it must never import it
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a prefixed view over the environment
type Conf struct{ prefix string }

// New returns an unprefixed Conf
func New() Conf { return Conf{} }

// Prefix returns a child Conf, e.g. Prefix("LOG_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) lookup(key string) string {
	return strings.TrimSpace(os.Getenv(c.prefix + key))
}

// Get returns the value or def when unset or blank
func (c Conf) Get(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// GetBool accepts anything strconv.ParseBool does plus yes and no
func (c Conf) GetBool(key string, def bool) bool {
	switch v := strings.ToLower(c.lookup(key)); v {
	case "":
		return def
	case "yes":
		return true
	case "no":
		return false
	default:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
}
