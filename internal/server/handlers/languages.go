package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
)

// LanguagesResponse lists the languages the assistant accepts.
type LanguagesResponse struct {
	Default   string              `json:"default"`
	Languages []core.LanguageInfo `json:"languages"`
}

// LanguagesHandler answers GET /api/languages.
func LanguagesHandler(w http.ResponseWriter, r *http.Request) {
	response := LanguagesResponse{
		Default:   core.DefaultLanguage,
		Languages: core.SupportedLanguages(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
