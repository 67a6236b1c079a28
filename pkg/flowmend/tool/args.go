package tool

import (
	"fmt"
	"time"
)

// Args is a loosely-typed tool argument map, as decoded from a model's
// JSON tool call. Numbers arrive as float64.
type Args map[string]any

// String returns the string argument for key, or defaultVal if absent.
func (a Args) String(key, defaultVal string) string {
	if s, ok := a[key].(string); ok {
		return s
	}
	return defaultVal
}

// RequireString returns the string argument for key or an error.
func (a Args) RequireString(key string) (string, error) {
	s, ok := a[key].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	return s, nil
}

// Int returns the integer argument for key, or defaultVal if absent or
// not numeric.
func (a Args) Int(key string, defaultVal int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultVal
}

// Int64 returns the int64 argument for key, or defaultVal if absent.
func (a Args) Int64(key string, defaultVal int64) int64 {
	switch v := a[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return defaultVal
}

// Seconds returns the argument for key interpreted as seconds, or
// defaultVal if absent.
func (a Args) Seconds(key string, defaultVal time.Duration) time.Duration {
	switch v := a[key].(type) {
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return defaultVal
}

// Map returns the map argument for key, or nil.
func (a Args) Map(key string) map[string]any {
	if m, ok := a[key].(map[string]any); ok {
		return m
	}
	return nil
}
