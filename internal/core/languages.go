package core

// LanguageInfo describes a supported answer language.
type LanguageInfo struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Native string `json:"native"`
}

// DefaultLanguage is the pivot language of the pipeline: retrieval and answer
// generation always run in English.
const DefaultLanguage = "en"

var supportedLanguages = []LanguageInfo{
	{Code: "en", Name: "English", Native: "English"},
	{Code: "es", Name: "Spanish", Native: "Español"},
	{Code: "fr", Name: "French", Native: "Français"},
	{Code: "de", Name: "German", Native: "Deutsch"},
	{Code: "zh", Name: "Chinese", Native: "中文"},
	{Code: "ja", Name: "Japanese", Native: "日本語"},
	{Code: "pt", Name: "Portuguese", Native: "Português"},
	{Code: "lt", Name: "Lithuanian", Native: "Lietuvių"},
	{Code: "it", Name: "Italian", Native: "Italiano"},
	{Code: "ko", Name: "Korean", Native: "한국어"},
}

// SupportedLanguages returns the fixed language set in display order.
func SupportedLanguages() []LanguageInfo {
	result := make([]LanguageInfo, len(supportedLanguages))
	copy(result, supportedLanguages)
	return result
}

// LanguageByCode looks up a language by its ISO 639-1 code.
func LanguageByCode(code string) (LanguageInfo, bool) {
	for _, lang := range supportedLanguages {
		if lang.Code == code {
			return lang, true
		}
	}
	return LanguageInfo{}, false
}

// IsSupportedLanguage reports whether the code belongs to the fixed set.
func IsSupportedLanguage(code string) bool {
	_, ok := LanguageByCode(code)
	return ok
}
