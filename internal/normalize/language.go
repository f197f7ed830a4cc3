package normalize

import (
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
	"golang.org/x/text/language"
)

type languageEntry struct {
	code    string
	aliases []string
}

var languageTable = []languageEntry{
	{"en", []string{"english", "eng", "en-us", "en-gb", "en-ca", "en-au", "inglés", "ingles"}},
	{"es", []string{"spanish", "español", "espanol", "castellano", "spa", "es-es", "es-mx", "es-419"}},
	{"fr", []string{"french", "français", "francais", "fra", "fre", "fr-fr", "fr-ca"}},
	{"de", []string{"german", "deutsch", "deu", "ger", "de-de"}},
	{"it", []string{"italian", "italiano", "ita"}},
	{"pt", []string{"portuguese", "português", "portugues", "por", "pt-br", "pt-pt"}},
	{"ca", []string{"catalan", "català", "catalán", "cat"}},
	{"nl", []string{"dutch", "nederlands", "nld", "dut"}},
	{"ja", []string{"japanese", "日本語", "jpn"}},
	{"zh", []string{"chinese", "中文", "zho", "chi", "zh-cn", "zh-tw"}},
	{"ru", []string{"russian", "русский", "rus"}},
	{"ko", []string{"korean", "kor"}},
	{"ar", []string{"arabic", "ara"}},
	{"pl", []string{"polish", "pol"}},
	{"sv", []string{"swedish", "swe"}},
}

// languageAliases is read-only after init.
var languageAliases map[string]string

func init() {
	languageAliases = make(map[string]string, len(languageTable)*6)
	for _, e := range languageTable {
		languageAliases[e.code] = e.code
		for _, a := range e.aliases {
			languageAliases[a] = e.code
		}
	}
}

// Language maps a language name or locale to a lowercase short code.
// Known long forms come from a fixed table; other well-formed BCP 47 tags
// reduce to their base language; anything else passes through lowercased.
func Language(v raw.Value) string {
	return LanguageCode(v.Text())
}

// LanguageCode is Language for a plain string.
func LanguageCode(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if isNullText(s) {
		return ""
	}
	s = strings.ReplaceAll(s, "_", "-")
	if code, ok := languageAliases[s]; ok {
		return code
	}
	if tag, err := language.Parse(s); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return strings.ToLower(base.String())
		}
	}
	return s
}
