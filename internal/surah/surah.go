// Package surah holds the fixed reference table of recitation categories the
// remote classifier distinguishes. The table is immutable after startup.
package surah

import "strings"

// Surah describes one of the six supported surahs.
type Surah struct {
	ID              int    `json:"id"`
	NameArabic      string `json:"nameArabic"`
	NameEnglish     string `json:"nameEnglish"`
	Transliteration string `json:"transliteration"`
	Meaning         string `json:"meaning"`
	Verses          int    `json:"verses"`
	AudioURL        string `json:"audioUrl"`
}

var surahs = []Surah{
	{
		ID:              1,
		NameArabic:      "الفاتحة",
		NameEnglish:     "Al-Fatiha",
		Transliteration: "Al-Fātiḥah",
		Meaning:         "The Opening",
		Verses:          7,
		AudioURL:        "https://server8.mp3quran.net/afs/001.mp3",
	},
	{
		ID:              2,
		NameArabic:      "الناس",
		NameEnglish:     "An-Nas",
		Transliteration: "An-Nās",
		Meaning:         "Mankind",
		Verses:          6,
		AudioURL:        "https://server8.mp3quran.net/afs/114.mp3",
	},
	{
		ID:              3,
		NameArabic:      "الفلق",
		NameEnglish:     "Al-Falaq",
		Transliteration: "Al-Falaq",
		Meaning:         "The Daybreak",
		Verses:          5,
		AudioURL:        "https://server8.mp3quran.net/afs/113.mp3",
	},
	{
		ID:              4,
		NameArabic:      "الإخلاص",
		NameEnglish:     "Al-Ikhlas",
		Transliteration: "Al-Ikhlāṣ",
		Meaning:         "Sincerity",
		Verses:          4,
		AudioURL:        "https://server8.mp3quran.net/afs/112.mp3",
	},
	{
		ID:              5,
		NameArabic:      "الكوثر",
		NameEnglish:     "Al-Kausar",
		Transliteration: "Al-Kawthar",
		Meaning:         "Abundance",
		Verses:          3,
		AudioURL:        "https://server8.mp3quran.net/afs/108.mp3",
	},
	{
		ID:              6,
		NameArabic:      "العصر",
		NameEnglish:     "Al-Asr",
		Transliteration: "Al-'Asr",
		Meaning:         "The Declining Day",
		Verses:          3,
		AudioURL:        "https://server8.mp3quran.net/afs/103.mp3",
	},
}

// Count is the number of supported surahs.
const Count = 6

// All returns a copy of the reference table.
func All() []Surah {
	out := make([]Surah, len(surahs))
	copy(out, surahs)
	return out
}

// ByID looks up a surah by its identifier. The second return value is false
// when the id is outside the supported set.
func ByID(id int) (Surah, bool) {
	for _, s := range surahs {
		if s.ID == id {
			return s, true
		}
	}
	return Surah{}, false
}

// NameByID returns the English name for id, or empty string when unknown.
func NameByID(id int) string {
	s, ok := ByID(id)
	if !ok {
		return ""
	}
	return s.NameEnglish
}

// MatchName resolves a surah by name, case-insensitively, tolerating an
// optional leading "Surah " prefix and matching either the English name or
// the transliteration. Historic server responses spelled An-Nas as "Al-Nas",
// so that alias is accepted too.
func MatchName(name string) (Surah, bool) {
	trimmed := strings.TrimSpace(name)
	if after, found := strings.CutPrefix(strings.ToLower(trimmed), "surah "); found {
		trimmed = after
	}
	if trimmed == "" {
		return Surah{}, false
	}
	for _, s := range surahs {
		if strings.EqualFold(trimmed, s.NameEnglish) || strings.EqualFold(trimmed, s.Transliteration) {
			return s, true
		}
	}
	if strings.EqualFold(trimmed, "Al-Nas") {
		return ByID(2)
	}
	return Surah{}, false
}
