package datefmt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CacheKey identifies a layout: the locales joined with "," then "-" and
// the JSON encoding of opts. Struct fields encode in declaration order and
// map keys sorted, so equal inputs always give equal keys.
//
// Locales are used as given, so "en-US" and "en-us" are distinct keys.
func CacheKey(locales []string, opts Options) (string, error) {
	raw, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidOption, err)
	}
	return strings.Join(locales, ",") + "-" + string(raw), nil
}
