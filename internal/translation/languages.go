package translation

import "sort"

const (
	SourceAuto        = "auto"
	DefaultTargetLang = "hr"
)

// supported target tags and their display names
var languages = map[string]string{
	"hr":    "Croatian",
	"en":    "English",
	"de":    "German",
	"fr":    "French",
	"es":    "Spanish",
	"it":    "Italian",
	"pt":    "Portuguese",
	"nl":    "Dutch",
	"pl":    "Polish",
	"cs":    "Czech",
	"sk":    "Slovak",
	"hu":    "Hungarian",
	"sl":    "Slovenian",
	"sr":    "Serbian",
	"bs":    "Bosnian",
	"mk":    "Macedonian",
	"bg":    "Bulgarian",
	"ro":    "Romanian",
	"ru":    "Russian",
	"uk":    "Ukrainian",
	"tr":    "Turkish",
	"el":    "Greek",
	"ar":    "Arabic",
	"zh-CN": "Chinese (Simplified)",
	"zh-TW": "Chinese (Traditional)",
	"ja":    "Japanese",
	"ko":    "Korean",
	"vi":    "Vietnamese",
	"th":    "Thai",
	"id":    "Indonesian",
	"ms":    "Malay",
	"hi":    "Hindi",
	"bn":    "Bengali",
	"ta":    "Tamil",
	"sv":    "Swedish",
	"no":    "Norwegian",
	"da":    "Danish",
	"fi":    "Finnish",
}

// Languages returns a copy of the supported language table.
func Languages() map[string]string {
	out := make(map[string]string, len(languages))
	for k, v := range languages {
		out[k] = v
	}
	return out
}

// LanguageTags returns the supported tags sorted.
func LanguageTags() []string {
	tags := make([]string, 0, len(languages))
	for k := range languages {
		tags = append(tags, k)
	}
	sort.Strings(tags)
	return tags
}

func IsSupported(tag string) bool {
	_, ok := languages[tag]
	return ok
}
