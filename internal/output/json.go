package output

import (
	"encoding/json"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
)

// JSONFormatter renders answers as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatAnswer renders an answer as JSON.
func (f *JSONFormatter) FormatAnswer(answer *core.Answer) (string, error) {
	if answer == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(answer, "", "  ")
	} else {
		data, err = json.Marshal(answer)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
