package datefmt

import (
	"errors"

	"github.com/dmitrymomot/datefmt/pkg/locale"
)

var (
	// ErrInvalidDate is returned for instants the engine cannot represent.
	ErrInvalidDate = errors.New("datefmt: invalid date")

	// ErrInvalidOption is returned for unknown or conflicting option values.
	ErrInvalidOption = errors.New("datefmt: invalid option")

	// ErrInvalidTimeZone is returned when the time zone cannot be resolved.
	ErrInvalidTimeZone = errors.New("datefmt: invalid time zone")

	// ErrInvalidLocale is returned for malformed locale identifiers.
	ErrInvalidLocale = locale.ErrInvalidLocale

	ErrProbeFailed = errors.New("datefmt: hour cycle probe failed")
)
