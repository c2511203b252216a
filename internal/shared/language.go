package shared

import "golang.org/x/text/language"

var supportedLanguages = []language.Tag{
	language.Russian,
	language.Kazakh,
	language.English,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// DefaultLanguage is the preference applied when none is supplied.
const DefaultLanguage = "ru"

// NormalizeLanguage maps a raw language preference onto one of the stored
// codes "ru", "kz" or "en". The legacy "kz" spelling is kept for Kazakh even
// though the ISO 639 code is "kk".
func NormalizeLanguage(raw string) (string, bool) {
	switch raw {
	case "":
		return DefaultLanguage, true
	case "kz":
		return "kz", true
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", false
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf < language.High {
		return "", false
	}
	switch supportedLanguages[idx] {
	case language.Russian:
		return "ru", true
	case language.Kazakh:
		return "kz", true
	case language.English:
		return "en", true
	}
	return "", false
}
