package dub

// TargetLocales lists the dubbing locales Murf accepts.
var TargetLocales = []string{
	"en_US", "en_UK", "en_IN", "en_SCOTT", "en_AU",
	"fr_FR", "de_DE", "es_ES", "es_MX", "it_IT", "pt_BR", "pl_PL",
	"hi_IN", "ko_KR", "ta_IN", "bn_IN", "ja_JP", "zh_CN", "nl_NL", "fi_FI",
	"ru_RU", "tr_TR", "uk_UA", "da_DK", "id_ID", "ro_RO", "nb_NO",
}

// SupportedLocale reports whether locale is a valid dubbing target.
func SupportedLocale(locale string) bool {
	for _, l := range TargetLocales {
		if l == locale {
			return true
		}
	}
	return false
}
