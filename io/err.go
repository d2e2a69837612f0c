package io

import (
	"errors"

	"github.com/ezrec/nibble/translate"
)

var f = translate.From

var (
	// Display errors
	ErrDisplayWrite = errors.New(f("display write"))
)
