package locale

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// maxAcceptLanguageLength bounds the header size parsed per request.
const maxAcceptLanguageLength = 4096

// AcceptLanguage returns the tags of an Accept-Language header ordered by
// quality, ready for Negotiate. Wildcards are skipped and a malformed header
// yields nil.
//
// Example: "fr-CH, fr;q=0.9, en;q=0.8, *;q=0.5" returns [fr-CH fr en].
func AcceptLanguage(header string) []string {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	if len(header) > maxAcceptLanguageLength {
		header = header[:maxAcceptLanguageLength]
		if i := strings.LastIndexByte(header, ','); i > 0 {
			header = header[:i]
		}
	}

	entries := strings.Split(header, ",")
	entries = slices.DeleteFunc(entries, func(e string) bool {
		name, _, _ := strings.Cut(e, ";")
		name = strings.TrimSpace(name)
		return name == "" || name == "*"
	})
	if len(entries) == 0 {
		return nil
	}

	tags, _, err := language.ParseAcceptLanguage(strings.Join(entries, ","))
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == language.Und {
			continue
		}
		out = append(out, tag.String())
	}
	return out
}
