package utils

import (
	"os"
	"strings"
)

func GetEnvOrSetDefault(key string, defaultVal string) string {
	if os.Getenv(key) == "" {
		os.Setenv(key, defaultVal)
		return defaultVal
	}

	return os.Getenv(key)
}

// GetEnvList reads a comma separated env var into a slice, dropping empty
// entries, so trailing commas in deploy configs are harmless.
func GetEnvList(key string, defaultVal string) []string {
	raw := GetEnvOrSetDefault(key, defaultVal)

	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
