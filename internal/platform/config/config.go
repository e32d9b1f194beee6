// Package config reads settings from environment variables
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"transitplan/internal/platform/logger"
)

// Conf is a prefixed view over the environment; New() reads unprefixed keys
// e.g. New().Prefix("PLANNING_").MayDuration("HEARTBEAT", ...) reads PLANNING_HEARTBEAT
type Conf struct{ prefix string }

// New returns the root view
func New() Conf { return Conf{} }

// Prefix returns a child view; prefixes concatenate
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Key is the environment variable name behind k
func (c Conf) Key(k string) string { return c.prefix + k }

func (c Conf) lookup(k string) string { return strings.TrimSpace(os.Getenv(c.Key(k))) }

// MustString returns the value of k and panics when it is unset or blank
func (c Conf) MustString(k string) string {
	v := c.lookup(k)
	if v == "" {
		logger.Get().Panic().Str("key", c.Key(k)).Msg("missing required env")
	}
	return v
}

// MayString returns the value of k or def
func (c Conf) MayString(k, def string) string {
	if v := c.lookup(k); v != "" {
		return v
	}
	return def
}

// MayInt returns k as an int; unset or unparsable gives def
func (c Conf) MayInt(k string, def int) int { return may(c, k, def, strconv.Atoi) }

// MayBool returns k as a bool; unset or unparsable gives def
func (c Conf) MayBool(k string, def bool) bool { return may(c, k, def, strconv.ParseBool) }

// MayDuration returns k as a duration such as 15s; unset or unparsable gives def
func (c Conf) MayDuration(k string, def time.Duration) time.Duration {
	return may(c, k, def, time.ParseDuration)
}

// MayCSV splits k on commas and drops blanks; nothing left gives def
func (c Conf) MayCSV(k string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.lookup(k), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// may parses k with parse; a bad value is logged and replaced by def
func may[T any](c Conf, k string, def T, parse func(string) (T, error)) T {
	s := c.lookup(k)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.Key(k)).Str("value", s).Interface("default", def).Msg("invalid env value; using default")
		return def
	}
	return v
}
