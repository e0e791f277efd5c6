package grades

import "errors"

var (
	// ErrEmptySheet means the input had no header line.
	ErrEmptySheet = errors.New("sheet has no header row")
	// ErrUnsupportedFormat means an upload was neither delimited text nor xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
