package hosted

import "errors"

var (
	// ErrAPIKeyRequired is returned when no API key is configured.
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrNoFiles is returned when Publish is called without files.
	ErrNoFiles = errors.New("no files to upload")

	// ErrNothingUploaded is returned when every upload failed.
	ErrNothingUploaded = errors.New("no files were uploaded")
)
