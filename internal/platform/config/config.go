// Package config reads typed settings from prefixed environment variables.
// Bad values are logged and replaced by the caller's default
package config

import (
	"strconv"
	"strings"
	"time"

	"harborlist/internal/platform/config/raw"
	"harborlist/internal/platform/logger"
)

// Conf is a prefixed view over the environment. The zero value reads
// unprefixed keys
type Conf struct{ env raw.Conf }

// New returns a Conf with no prefix
func New() Conf { return Conf{env: raw.New()} }

// Prefix returns a child Conf, e.g. root.Prefix("SERVICE_PGSQL_")
func (c Conf) Prefix(p string) Conf { return Conf{env: c.env.Prefix(p)} }

// MustString panics when key is unset or blank
func (c Conf) MustString(key string) string {
	v, ok := c.env.Lookup(key)
	if !ok {
		logger.Get().Panic().Str("key", c.env.Key(key)).Msg("missing required env")
	}
	return v
}

// MayString returns key or def
func (c Conf) MayString(key, def string) string { return c.env.Get(key, def) }

// MayInt returns key as an int or def
func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

// MayBool returns key as a bool or def
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

// MayDuration returns key as a time.Duration ("90s", "2h") or def
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayCSV splits key on commas and drops blank items. def when nothing is left
func (c Conf) MayCSV(key string, def []string) []string {
	v, _ := c.env.Lookup(key)
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns key or def and panics when the value is not one of
// allowed. Matching ignores case
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return v
		}
	}
	logger.Get().Panic().Str("key", c.env.Key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}

func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s, ok := c.env.Lookup(key)
	if !ok {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.env.Key(key)).Str("value", s).Interface("default", def).Msg("invalid value; using default")
		return def
	}
	return v
}
