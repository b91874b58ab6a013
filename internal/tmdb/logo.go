package tmdb

import (
	"cmp"
	"slices"
	"strings"
)

// SelectLogo ranks title logos by (language, vote count, width, height) and returns the best.
// A logo in the preferred language ranks above a language-agnostic one, which ranks above
// any other language.
func SelectLogo(logos []Logo, language string) (Logo, bool) {
	candidates := make([]Logo, 0, len(logos))
	for _, l := range logos {
		if l.FilePath != "" {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		return Logo{}, false
	}

	language = strings.ToLower(language)
	slices.SortStableFunc(candidates, func(a, b Logo) int {
		return cmp.Or(
			cmp.Compare(languageRank(b.Language, language), languageRank(a.Language, language)),
			cmp.Compare(b.VoteCount, a.VoteCount),
			cmp.Compare(b.Width, a.Width),
			cmp.Compare(b.Height, a.Height),
		)
	})

	return candidates[0], true
}

func languageRank(logoLang, preferred string) int {
	logoLang = strings.ToLower(logoLang)
	switch {
	case logoLang != "" && logoLang == preferred:
		return 2
	case logoLang == "" || logoLang == "xx":
		return 1
	default:
		return 0
	}
}
