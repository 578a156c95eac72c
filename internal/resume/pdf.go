// Package resume extracts, stores and retrieves uploaded resumes.
package resume

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText returns the plain text of every page. It never fails: an
// unreadable document yields a bracketed failure note instead.
func ExtractText(data []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = failureNote(fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return failureNote(err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return failureNote(err)
	}
	content, err := io.ReadAll(plain)
	if err != nil {
		return failureNote(err)
	}
	return strings.TrimSpace(string(content))
}

// IsFailure reports whether text is an ExtractText failure note.
func IsFailure(text string) bool {
	return strings.HasPrefix(text, "[PDF extraction failed:")
}

func failureNote(err error) string {
	return fmt.Sprintf("[PDF extraction failed: %v]", err)
}
