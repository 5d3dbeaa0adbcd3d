package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidationReason identifies which input check rejected a conversion request.
type ValidationReason string

const (
	ReasonEmptySelection     ValidationReason = "empty_selection"
	ReasonFileNotFound       ValidationReason = "file_not_found"
	ReasonUnsupportedFormat  ValidationReason = "unsupported_format"
	ReasonMissingTitle       ValidationReason = "missing_title"
	ReasonMissingAuthor      ValidationReason = "missing_author"
	ReasonMissingDestination ValidationReason = "missing_destination"
)

// ValidationError reports a rejected conversion request. It is always
// returned before any external process is started, so correcting the
// input and resubmitting is safe.
type ValidationError struct {
	Reason ValidationReason
	Path   string
}

// Error formats the rejection for logs and UI.
func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmptySelection:
		return "no input files selected"
	case ReasonFileNotFound:
		return fmt.Sprintf("input file not found: %s", e.Path)
	case ReasonUnsupportedFormat:
		return fmt.Sprintf("unsupported input format: %s", e.Path)
	case ReasonMissingTitle:
		return "audiobook title is required"
	case ReasonMissingAuthor:
		return "audiobook author is required"
	case ReasonMissingDestination:
		return "destination path is required"
	default:
		return fmt.Sprintf("invalid conversion request: %s", e.Reason)
	}
}

// supportedInputExt lists the formats accepted from the file picker.
var supportedInputExt = map[string]bool{
	".mp3": true,
	".m4a": true,
	".wav": true,
}

// Validate checks a conversion request without side effects beyond
// read-only stat calls. It returns nil or a *ValidationError.
func (p *Pipeline) Validate(req Request) error {
	if len(req.Files) == 0 {
		return &ValidationError{Reason: ReasonEmptySelection}
	}
	for _, file := range req.Files {
		if !supportedInputExt[strings.ToLower(filepath.Ext(file))] {
			return &ValidationError{Reason: ReasonUnsupportedFormat, Path: file}
		}
		if _, err := p.stat(file); err != nil {
			return &ValidationError{Reason: ReasonFileNotFound, Path: file}
		}
	}
	if strings.TrimSpace(req.Meta.Title) == "" {
		return &ValidationError{Reason: ReasonMissingTitle}
	}
	if strings.TrimSpace(req.Meta.Author) == "" {
		return &ValidationError{Reason: ReasonMissingAuthor}
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return &ValidationError{Reason: ReasonMissingDestination}
	}
	return nil
}
