// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"slices"
	"strings"
)

var securitySensitiveEnvTokens = []string{"PASS", "PASSWORD", "TOKEN", "SECRET", "ORIGIN", "PROXY", "COOKIE"}

// ValidateEnvUsage detects unknown ISSUEDESK_* keys (dead flags or typos).
// It must run after Load. In strict mode unknown security-sensitive keys fail.
func (l *Loader) ValidateEnvUsage(strict bool) ([]string, error) {
	var unknown, fatal []string
	for _, pair := range l.environ() {
		key, _, _ := strings.Cut(pair, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, ok := l.ConsumedEnvKeys[key]; ok {
			continue
		}
		unknown = append(unknown, key)
		if strict && isSecuritySensitiveEnvKey(key) {
			fatal = append(fatal, key)
		}
	}
	slices.Sort(unknown)

	logger := configLogger()
	for _, key := range unknown {
		logger.Warn().Str("key", key).Msg("unknown ISSUEDESK env key detected (dead flag or typo)")
	}
	if len(fatal) > 0 {
		slices.Sort(fatal)
		return unknown, fmt.Errorf("unknown security-sensitive ISSUEDESK env keys: %s", strings.Join(fatal, ", "))
	}
	return unknown, nil
}

func isSecuritySensitiveEnvKey(key string) bool {
	upper := strings.ToUpper(strings.TrimSpace(key))
	for _, token := range securitySensitiveEnvTokens {
		if strings.Contains(upper, token) {
			return true
		}
	}
	return false
}
