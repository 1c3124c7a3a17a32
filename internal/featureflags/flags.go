// Package featureflags evaluates per-user feature switches configured through FEATURE_FLAGS.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// PsychAILLM routes non-crisis PsychAI messages to the language model instead of the fallback replies.
	PsychAILLM = "psychai_llm"
	// LiveNotifications enables the websocket push for notifications.
	LiveNotifications = "live_notifications"
)

var defaults = map[string]string{
	PsychAILLM:        "on",
	LiveNotifications: "on",
}

// Manager evaluates feature flags defined in a comma-separated key=value list, layered over
// the built-in defaults. Example: "psychai_llm=25%,live_notifications=off".
type Manager struct {
	flags map[string]string
}

// NewManager parses raw; malformed pairs are skipped.
func NewManager(raw string) *Manager {
	flags := make(map[string]string, len(defaults))
	for k, v := range defaults {
		flags[k] = v
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		flags[key] = value
	}

	return &Manager{flags: flags}
}

// Enabled reports whether name is on for userID. Values are on/true/1, off/false/0, or N%
// for a deterministic per-user rollout. Unknown flags are off.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil || !strings.HasSuffix(value, "%") {
		return false
	}
	switch {
	case pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < pct
}

// Snapshot returns the evaluated state of every configured flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
