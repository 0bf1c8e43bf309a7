package locale

import "errors"

var (
	ErrInvalidLocale  = errors.New("locale: invalid locale identifier")
	ErrInvalidData    = errors.New("locale: invalid locale data")
	ErrUnknownDefault = errors.New("locale: default locale is not in the database")
	ErrEmptyDatabase  = errors.New("locale: no locales loaded")
)
