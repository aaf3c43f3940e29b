package sqc

import "errors"

var (
	ErrInvalidMagic       = errors.New("invalid SQC magic")
	ErrUnsupportedVersion = errors.New("unsupported SQC class version")
	ErrCorruptFile        = errors.New("corrupt SQC file")
	ErrTooManyProperties  = errors.New("too many SQC properties")
)
