package scene

// WorkingLanguage is the language every extractor operates on
const WorkingLanguage = "en"

var supportedLanguages = []struct {
	Code string
	Name string
}{
	{"en", "English"},
	{"ro", "Romanian"},
	{"fr", "French"},
	{"de", "German"},
	{"es", "Spanish"},
	{"it", "Italian"},
}

// SupportedLanguages returns the accepted request language codes
func SupportedLanguages() []string {
	codes := make([]string, 0, len(supportedLanguages))
	for _, l := range supportedLanguages {
		codes = append(codes, l.Code)
	}
	return codes
}

// LanguageName returns the English name of a supported language code
func LanguageName(code string) (string, bool) {
	for _, l := range supportedLanguages {
		if l.Code == code {
			return l.Name, true
		}
	}
	return "", false
}
