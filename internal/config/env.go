package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} and $VAR patterns.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// ExpandEnv replaces ${VAR} and $VAR with environment variables. Unset variables expand
// to the empty string. Unlike os.ExpandEnv, shell special parameters such as $$, $1 or $!
// are not names and stay as they are, so keys and prompts containing them survive.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var name string
		if match[1] == '{' {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}
		return os.Getenv(name)
	})
}

// ExpandEnvMap expands all values in a map.
func ExpandEnvMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}

	expanded := make(map[string]string, len(m))
	for key, value := range m {
		expanded[key] = ExpandEnv(value)
	}
	return expanded
}
