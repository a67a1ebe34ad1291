// Package intake normalizes the two accepted audio input shapes (multipart
// file upload, base64 payload from the recorder) into a single in-memory
// representation for the transcription service.
package intake

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedMedia is returned when the declared type is not an
	// accepted audio format.
	ErrUnsupportedMedia = errors.New("unsupported audio format")

	// ErrMalformedPayload is returned when the payload is empty or the
	// base64 data cannot be decoded.
	ErrMalformedPayload = errors.New("malformed audio payload")
)

// Declared extensions are trusted as-is; there is no content sniffing. A wrong
// declaration surfaces later as a provider-side transcription failure.
var acceptedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".mp4":  true,
	".mpeg": true,
	".mpga": true,
	".webm": true, // recorded clips
}

// Audio is a normalized audio payload ready for transcription.
type Audio struct {
	Data      []byte
	Filename  string
	Extension string // includes the leading dot
}

// FromUpload normalizes an uploaded file. The extension is taken from the
// declared filename.
func FromUpload(r io.Reader, filename string) (*Audio, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: missing filename", ErrMalformedPayload)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !acceptedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedMedia, ext, acceptedList())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedPayload)
	}

	return &Audio{Data: data, Filename: filename, Extension: ext}, nil
}

// FromBase64 normalizes a base64-encoded payload with a declared extension,
// as sent by the in-browser recorder. The filename is synthesized by the
// caller.
func FromBase64(encoded, extension string) (*Audio, error) {
	ext := strings.ToLower(extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == "" {
		ext = ".webm"
	}
	if !acceptedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedMedia, ext, acceptedList())
	}

	if encoded == "" {
		return nil, fmt.Errorf("%w: empty audio data", ErrMalformedPayload)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty audio data", ErrMalformedPayload)
	}

	return &Audio{Data: data, Extension: ext}, nil
}

func acceptedList() string {
	exts := make([]string, 0, len(acceptedExtensions))
	for ext := range acceptedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
