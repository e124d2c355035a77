package importer

import (
	"errors"
	"fmt"
	"mime/multipart"
)

// ErrMalformed wraps decoding failures of an uploaded file.
var ErrMalformed = errors.New("malformed import file")

// ReadFile decodes an uploaded CSV or XLSX file.
func ReadFile(fh *multipart.FileHeader) ([]Record, error) {
	format, err := DetectFormat(fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	records, err := Read(src, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return records, nil
}
