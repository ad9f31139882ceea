package handlers

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Message keys returned in {"error": ...} bodies.
const (
	msgNoFaceFile      = "no face file"
	msgNoImages        = "no images"
	msgNoEmail         = "no email"
	msgNoClass         = "no class"
	msgInvalidEmail    = "invalid email"
	msgInvalidInput    = "invalid input"
	msgUndecodable     = "image could not be decoded"
	msgFieldTooLong    = "field too long"
	msgUploadTooLarge  = "upload too large"
	msgInvalidForm     = "invalid multipart form"
	msgFaceNotReal     = "face not real"
	msgUnknownUser     = "unknown user"
	msgUserNotExist    = "user does not exist"
	msgStorageFailure  = "storage failure"
	msgRequestCanceled = "request cancelled"
)

//go:embed messages.yaml
var messagesYAML []byte

// Messages translates message keys into the language negotiated from the
// Accept-Language header. English is the fallback.
type Messages struct {
	tags     []language.Tag
	matcher  language.Matcher
	printers []*message.Printer
}

// LoadMessages parses the embedded catalog.
func LoadMessages() (*Messages, error) {
	return parseMessages(messagesYAML)
}

func parseMessages(data []byte) (*Messages, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing messages: %w", err)
	}
	if _, ok := raw["en"]; !ok {
		return nil, errors.New("messages: missing default language en")
	}

	// English first so the matcher falls back to it.
	langs := make([]string, 0, len(raw))
	for lang := range raw {
		if lang != "en" {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	langs = append([]string{"en"}, langs...)

	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	tags := make([]language.Tag, 0, len(langs))
	for _, lang := range langs {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("messages: invalid language %q: %w", lang, err)
		}
		for key, text := range raw[lang] {
			if err := builder.SetString(tag, key, text); err != nil {
				return nil, fmt.Errorf("messages: %s/%q: %w", lang, key, err)
			}
		}
		tags = append(tags, tag)
	}

	printers := make([]*message.Printer, len(tags))
	for i, tag := range tags {
		printers[i] = message.NewPrinter(tag, message.Catalog(builder))
	}

	return &Messages{
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		printers: printers,
	}, nil
}

// Languages returns the supported languages, default first.
func (m *Messages) Languages() []language.Tag {
	return m.tags
}

// Lookup returns the text for key in the best language for acceptLanguage.
// Unknown keys are returned unchanged.
func (m *Messages) Lookup(acceptLanguage, key string) string {
	if m == nil {
		return key
	}
	return m.printers[m.index(acceptLanguage)].Sprintf(key)
}

func (m *Messages) index(acceptLanguage string) int {
	if acceptLanguage == "" {
		return 0
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return 0
	}
	_, idx, _ := m.matcher.Match(desired...)
	return idx
}
