package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateNodeID validates an identifier used for people and teams.
// Identifiers end up in SVG element ids and URL paths, so the rules are
// conservative:
//   - No empty ids
//   - No control characters or whitespace
//   - No quotes, angle brackets or ampersands
//   - Maximum length of 128 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "id %q contains whitespace or control characters", id)
		}
	}

	if strings.ContainsAny(id, "\"'<>&") {
		return New(ErrCodeInvalidInput, "id %q contains markup characters", id)
	}

	return nil
}

// rosterExtensions lists the file types the roster loader understands.
var rosterExtensions = map[string]bool{
	".csv":  true,
	".json": true,
	".toml": true,
	".yaml": true,
	".yml":  true,
}

// ValidateRosterPath validates a roster file path.
// The path must be non-empty, free of null bytes and carry a known extension.
func ValidateRosterPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "roster path cannot be empty")
	}

	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidPath, "roster path contains invalid characters")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !rosterExtensions[ext] {
		return New(ErrCodeInvalidFormat, "unsupported roster format %q (want csv, json, toml or yaml)", ext)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
