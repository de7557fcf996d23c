package i18n

import (
	"sort"
	"strings"
	"testing"
)

// Every catalog must carry the same keys with the same format verbs, or
// Translatef renders %!s(MISSING) in one language only.
func TestLocaleCatalogsMatch(t *testing.T) {
	manager, err := NewManager(LangJA)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	reference := manager.locales[LangJA]
	for _, code := range manager.SupportedLanguages() {
		if code == LangJA {
			continue
		}
		catalog := manager.locales[code]

		var problems []string
		for key, value := range reference {
			other, ok := catalog[key]
			switch {
			case !ok:
				problems = append(problems, "missing "+key)
			case strings.TrimSpace(other) == "":
				problems = append(problems, "blank "+key)
			case strings.Count(other, "%") != strings.Count(value, "%"):
				problems = append(problems, "verbs differ in "+key)
			}
		}
		for key := range catalog {
			if _, ok := reference[key]; !ok {
				problems = append(problems, "extra "+key)
			}
		}
		if len(problems) > 0 {
			sort.Strings(problems)
			t.Errorf("%s catalog: %s", code, strings.Join(problems, ", "))
		}
	}
}
