// Package transcription converts recorded audio into text.
//
// Only a stub provider is built in: it sanity-checks the head of the base64
// payload and returns a fixed sentence. Real speech-to-text backends plug in
// behind the Transcriber interface.
package transcription

import (
	"context"
	"strings"

	"golang.org/x/text/language"

	"github.com/memobread/memobread/internal/errors"
)

// DefaultLanguage is used when neither the request nor the configuration names one
const DefaultLanguage = "zh-CN"

// Transcriber turns base64-encoded audio into text. languageHint is a BCP 47
// tag and may be empty. Implementations must honour ctx cancellation.
type Transcriber interface {
	Transcribe(ctx context.Context, audioBase64, languageHint string) (string, error)
}

// ParseLanguage resolves a request hint against the configured fallback.
// An empty hint yields the fallback; an unparseable hint is a validation error.
func ParseLanguage(hint, fallback string) (language.Tag, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		hint = fallback
	}
	if hint == "" {
		hint = DefaultLanguage
	}

	tag, err := language.Parse(hint)
	if err != nil {
		return language.Und, errors.New(err).
			Component("transcription").
			Category(errors.CategoryValidation).
			Context("language", hint).
			Build()
	}
	return tag, nil
}

// contextError converts a finished context into a categorized error
func contextError(ctx context.Context, operation string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	category := errors.CategoryCancellation
	if errors.Is(err, context.DeadlineExceeded) {
		category = errors.CategoryTimeout
	}
	return errors.New(err).
		Component("transcription").
		Category(category).
		Context("operation", operation).
		Build()
}
