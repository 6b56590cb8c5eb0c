package core

import (
	"fmt"
	"sort"
	"strings"
)

// MessageCatalog is a typed map exposing user-visible strings, replacing the
// "global messages dict" anti-pattern (spec.md §9): an accessor fails the
// run at startup if any referenced key is missing rather than failing deep
// inside the component that needed it.
type MessageCatalog map[string]string

// Get returns the message for key, or the key itself if absent (never
// panics mid-run; absence is caught earlier by Require).
func (c MessageCatalog) Get(key string) string {
	if v, ok := c[key]; ok {
		return v
	}
	return key
}

// Require verifies every key in keys exists in the catalog, returning a
// single ConfigError naming every missing key if any are absent.
func (c MessageCatalog) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := c[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return ErrConfig(CodeMissingMessageKey,
		fmt.Sprintf("message catalog missing required keys: %s", strings.Join(missing, ", ")), "")
}
