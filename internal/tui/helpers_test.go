package tui

import (
	"io"

	"github.com/rs/zerolog"
)

func zerologTo(w io.Writer) zerolog.Logger {
	return zerolog.New(w)
}
