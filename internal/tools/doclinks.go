package tools

import (
	"strings"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
)

// DocLink is one official documentation reference for a library.
type DocLink struct {
	Library string `json:"library"`
	URL     string `json:"url"`
}

// DocLinks returns official documentation URLs for the libraries mentioned
// in the question. Matching is case-insensitive on whole words.
func DocLinks(question string) []DocLink {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !isWordRune(r)
	})

	mentioned := make(map[string]bool, len(fields))
	for _, f := range fields {
		mentioned[f] = true
	}

	var links []DocLink
	for _, lib := range core.SupportedLibraries() {
		if !mentioned[strings.ToLower(lib)] {
			continue
		}
		for _, u := range core.DocURLs(lib) {
			links = append(links, DocLink{Library: lib, URL: u})
		}
	}
	return links
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_':
		return true
	}
	return false
}
