package index

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed corpus/*.md
var corpusFS embed.FS

// CorpusDoc is one embedded documentation source file.
type CorpusDoc struct {
	Library  string
	Source   string
	Category string
	Content  string
}

type corpusFrontmatter struct {
	Library  string `yaml:"library"`
	Category string `yaml:"category"`
}

// LoadCorpus reads the embedded documentation set.
func LoadCorpus() ([]CorpusDoc, error) {
	entries, err := corpusFS.ReadDir("corpus")
	if err != nil {
		return nil, fmt.Errorf("read embedded corpus: %w", err)
	}

	docs := make([]CorpusDoc, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := corpusFS.ReadFile("corpus/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read corpus file %s: %w", entry.Name(), err)
		}
		doc, err := parseCorpusDoc(entry.Name(), data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func parseCorpusDoc(name string, data []byte) (CorpusDoc, error) {
	text := string(data)
	if !strings.HasPrefix(text, "---\n") {
		return CorpusDoc{}, fmt.Errorf("corpus file %s: missing frontmatter", name)
	}

	rest := text[len("---\n"):]
	endIdx := strings.Index(rest, "\n---")
	if endIdx < 0 {
		return CorpusDoc{}, fmt.Errorf("corpus file %s: unterminated frontmatter", name)
	}

	var fm corpusFrontmatter
	if err := yaml.Unmarshal([]byte(rest[:endIdx]), &fm); err != nil {
		return CorpusDoc{}, fmt.Errorf("corpus file %s: parse frontmatter: %w", name, err)
	}
	if strings.TrimSpace(fm.Library) == "" {
		return CorpusDoc{}, fmt.Errorf("corpus file %s: frontmatter requires library", name)
	}

	body := rest[endIdx+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")

	return CorpusDoc{
		Library:  strings.TrimSpace(fm.Library),
		Source:   name,
		Category: strings.TrimSpace(fm.Category),
		Content:  strings.TrimSpace(body),
	}, nil
}
