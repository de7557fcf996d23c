package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/terraincognita07/tukicale/internal/models"
	"golang.org/x/text/language"
)

const (
	LangJA = "ja"
	LangEN = "en"
)

//go:embed locales/*.json
var localeFiles embed.FS

type Manager struct {
	defaultLanguage string
	locales         map[string]map[string]string
	supported       []string
	matcher         language.Matcher
}

// NewManager loads the catalogs compiled into the binary.
func NewManager(defaultLanguage string) (*Manager, error) {
	locales, err := fs.Sub(localeFiles, "locales")
	if err != nil {
		return nil, fmt.Errorf("open embedded locales: %w", err)
	}
	return NewManagerFromFS(defaultLanguage, locales)
}

// NewManagerFromFS reads one <lang>.json catalog per language from locales.
// Both ja and en are required.
func NewManagerFromFS(defaultLanguage string, locales fs.FS) (*Manager, error) {
	catalogs, err := fs.Glob(locales, "*.json")
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}

	manager := &Manager{locales: make(map[string]map[string]string, len(catalogs))}
	for _, name := range catalogs {
		code := strings.ToLower(strings.TrimSuffix(name, path.Ext(name)))
		content, err := fs.ReadFile(locales, name)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", code, err)
		}

		var messages map[string]string
		if err := json.Unmarshal(content, &messages); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", code, err)
		}
		if len(messages) == 0 {
			return nil, fmt.Errorf("locale %s is empty", code)
		}
		manager.locales[code] = messages
		manager.supported = append(manager.supported, code)
	}

	for _, required := range []string{LangJA, LangEN} {
		if _, ok := manager.locales[required]; !ok {
			return nil, fmt.Errorf("required locale %q missing", required)
		}
	}
	sort.Strings(manager.supported)

	// NormalizeLanguage falls back to defaultLanguage, so seed it first.
	manager.defaultLanguage = LangJA
	manager.defaultLanguage = manager.NormalizeLanguage(defaultLanguage)

	// The default goes first so the matcher returns index 0 when nothing in a
	// header is supported.
	tags := []language.Tag{language.Make(manager.defaultLanguage)}
	for _, code := range manager.supported {
		if code != manager.defaultLanguage {
			tags = append(tags, language.Make(code))
		}
	}
	manager.matcher = language.NewMatcher(tags)
	return manager, nil
}

func (manager *Manager) DefaultLanguage() string {
	return manager.defaultLanguage
}

func (manager *Manager) SupportedLanguages() []string {
	return append([]string(nil), manager.supported...)
}

// NormalizeLanguage reduces a tag such as "en-US" or "ja_JP" to a supported
// base language, falling back to the default.
func (manager *Manager) NormalizeLanguage(raw string) string {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(raw), "_", "-"))
	if err != nil {
		return manager.defaultLanguage
	}
	base, _ := tag.Base()
	if code := base.String(); manager.isSupported(code) {
		return code
	}
	return manager.defaultLanguage
}

// DetectFromAcceptLanguage picks the best supported language for an
// Accept-Language header, honouring q-values.
func (manager *Manager) DetectFromAcceptLanguage(header string) string {
	preferred, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(preferred) == 0 {
		return manager.defaultLanguage
	}
	_, index, confidence := manager.matcher.Match(preferred...)
	if confidence == language.No || index == 0 {
		return manager.defaultLanguage
	}
	return manager.matcherLanguage(index)
}

func (manager *Manager) matcherLanguage(index int) string {
	position := 0
	for _, code := range manager.supported {
		if code == manager.defaultLanguage {
			continue
		}
		position++
		if position == index {
			return code
		}
	}
	return manager.defaultLanguage
}

// Messages returns the full catalog for language with missing keys filled
// from the default language.
func (manager *Manager) Messages(lang string) map[string]string {
	fallback := manager.locales[manager.defaultLanguage]
	target := manager.locales[manager.NormalizeLanguage(lang)]

	result := make(map[string]string, len(fallback))
	for key, value := range fallback {
		result[key] = value
	}
	for key, value := range target {
		result[key] = value
	}
	return result
}

// Translate returns key itself when neither catalog has a non-blank value.
func (manager *Manager) Translate(lang string, key string) string {
	if value := manager.locales[manager.NormalizeLanguage(lang)][key]; strings.TrimSpace(value) != "" {
		return value
	}
	if value := manager.locales[manager.defaultLanguage][key]; strings.TrimSpace(value) != "" {
		return value
	}
	return key
}

func (manager *Manager) Translatef(lang string, key string, args ...any) string {
	return fmt.Sprintf(manager.Translate(lang, key), args...)
}

func (manager *Manager) isSupported(code string) bool {
	_, ok := manager.locales[code]
	return ok
}

// EventLabels is the calendar summary source for one language.
type EventLabels struct {
	manager  *Manager
	language string
}

func (manager *Manager) EventLabels(language string) EventLabels {
	return EventLabels{manager: manager, language: manager.NormalizeLanguage(language)}
}

func (labels EventLabels) EventSummary(category models.EventCategory) string {
	return labels.manager.Translate(labels.language, "event."+string(category))
}

func (labels EventLabels) HealthSummary(symptom string) string {
	name := labels.manager.Translate(labels.language, "symptom."+symptom)
	return labels.manager.Translatef(labels.language, "event.health_format", name)
}
