// Package raw reads prefixed environment variables without logging, so the
// logger can configure itself from it
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a prefixed view over the environment, e.g. "LOG_"
type Conf struct{ prefix string }

// New returns a Conf with no prefix
func New() Conf { return Conf{} }

// Prefix returns a child Conf with p appended to the prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Key returns the full env var name for k
func (c Conf) Key(k string) string { return c.prefix + k }

// Lookup returns the trimmed value of k. ok is false when it is unset or blank
func (c Conf) Lookup(k string) (v string, ok bool) {
	v = strings.TrimSpace(os.Getenv(c.Key(k)))
	return v, v != ""
}

// Get returns the value of key or def
func (c Conf) Get(key, def string) string {
	if v, ok := c.Lookup(key); ok {
		return v
	}
	return def
}

// GetBool accepts 1/true/yes/on and 0/false/no/off in any case. Anything
// else is def
func (c Conf) GetBool(key string, def bool) bool {
	v, _ := c.Lookup(key)
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// GetInt returns key as a non-negative int, or def
func (c Conf) GetInt(key string, def int) int {
	v, ok := c.Lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
