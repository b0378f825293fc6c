package transcription

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/memobread/memobread/internal/errors"
	"github.com/memobread/memobread/internal/logger"
)

const (
	// PlaceholderText is returned for every decodable payload
	PlaceholderText = "这是一个语音转文字的测试。今天天气很好，我想记录一下这个美好的时刻。"
	// UnrecognizedText is returned when the payload head cannot be decoded
	UnrecognizedText = "无法识别语音内容"

	// DefaultPrefixLength is the number of characters of the payload the stub decodes
	DefaultPrefixLength = 100

	// ProviderStub is the provider name of the built-in stub
	ProviderStub = "stub"
)

// DurationObserver receives the time spent in each transcription call
type DurationObserver interface {
	ObserveTranscription(provider string, d time.Duration, err error)
}

// StubTranscriber is the placeholder speech-to-text provider
type StubTranscriber struct {
	prefixLength    int
	strict          bool
	defaultLanguage string
	log             logger.Logger
	observer        DurationObserver
}

// StubOption configures a StubTranscriber
type StubOption func(*StubTranscriber)

// WithPrefixLength sets how many leading characters are decoded
func WithPrefixLength(n int) StubOption {
	return func(s *StubTranscriber) {
		if n > 0 {
			s.prefixLength = n
		}
	}
}

// WithStrictDecode makes undecodable audio a validation error instead of UnrecognizedText
func WithStrictDecode(strict bool) StubOption {
	return func(s *StubTranscriber) { s.strict = strict }
}

// WithDefaultLanguage sets the language used when the request has none
func WithDefaultLanguage(tag string) StubOption {
	return func(s *StubTranscriber) {
		if tag != "" {
			s.defaultLanguage = tag
		}
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) StubOption {
	return func(s *StubTranscriber) {
		if log != nil {
			s.log = log
		}
	}
}

// WithObserver reports call durations, e.g. to Prometheus
func WithObserver(o DurationObserver) StubOption {
	return func(s *StubTranscriber) { s.observer = o }
}

// NewStub creates the stub provider
func NewStub(opts ...StubOption) *StubTranscriber {
	s := &StubTranscriber{
		prefixLength:    DefaultPrefixLength,
		defaultLanguage: DefaultLanguage,
		log:             logger.Global().Module("transcription"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transcribe decodes the head of the payload and returns PlaceholderText.
// A payload whose head does not decode yields UnrecognizedText, or a
// validation error in strict mode.
func (s *StubTranscriber) Transcribe(ctx context.Context, audioBase64, languageHint string) (text string, err error) {
	start := time.Now()
	if s.observer != nil {
		defer func() { s.observer.ObserveTranscription(ProviderStub, time.Since(start), err) }()
	}

	if err := contextError(ctx, "transcribe"); err != nil {
		return "", err
	}

	tag, err := ParseLanguage(languageHint, s.defaultLanguage)
	if err != nil {
		return "", err
	}

	prefix := headRunes(audioBase64, s.prefixLength)
	if _, decodeErr := decodeLenient(prefix); decodeErr != nil {
		if s.strict {
			return "", errors.New(decodeErr).
				Component("transcription").
				Category(errors.CategoryValidation).
				Context("operation", "decode_audio").
				Build()
		}
		s.log.Warn("audio payload not decodable, returning fallback text",
			logger.Error(decodeErr),
			logger.Int("payload_length", len(audioBase64)))
		return UnrecognizedText, nil
	}

	s.log.Debug("audio transcribed",
		logger.String("language", tag.String()),
		logger.Int("payload_length", len(audioBase64)))
	return PlaceholderText, nil
}

// headRunes returns the first n characters of s
func headRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// decodeLenient decodes base64 the forgiving way clients tend to rely on:
// characters outside the alphabet are skipped and decoding stops at the
// first complete padding sequence. Non-ASCII input, a dangling single
// character and missing padding are errors.
func decodeLenient(s string) ([]byte, error) {
	data := make([]byte, 0, len(s))
	quad, pads := 0, 0
	padded := false

scan:
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 0x80:
			return nil, errors.Newf("non-ASCII character in audio payload at offset %d", i).
				Component("transcription").
				Category(errors.CategoryValidation).
				Build()
		case c == '=':
			if quad >= 2 {
				pads++
				if quad+pads >= 4 {
					padded = true
					break scan
				}
			}
			continue
		case !isBase64Char(c):
			continue
		}
		pads = 0
		data = append(data, c)
		quad = (quad + 1) % 4
	}

	if !padded {
		switch quad {
		case 0:
		case 1:
			return nil, errors.Newf("invalid base64: %d data characters is one more than a multiple of 4", len(data)).
				Component("transcription").
				Category(errors.CategoryValidation).
				Build()
		default:
			return nil, errors.Newf("invalid base64: incorrect padding").
				Component("transcription").
				Category(errors.CategoryValidation).
				Build()
		}
	}

	return base64.RawStdEncoding.DecodeString(string(data))
}

func isBase64Char(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '+' || c == '/'
}
