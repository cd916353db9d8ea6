// Package azure provides an Azure Cognitive Services Speech-backed
// synthesizer. It implements the speech.Synthesizer interface against the
// regional REST endpoint: prompt text is rendered into an SSML document and
// POSTed, and the response body is the raw audio in the requested output
// format.
//
// Typical usage:
//
//	s, err := azure.New("japaneast", apiKey,
//	    azure.WithLanguage("ja-JP"),
//	    azure.WithTimeout(10*time.Second),
//	)
//	audio, err := s.Synthesize(ctx, "計測を開始します。", "ja-JP-NanamiNeural", speech.FormatMP3)
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hitoha-dev/kioskd/pkg/speech"
)

// Compile-time interface assertion.
var _ speech.Synthesizer = (*Synthesizer)(nil)

const (
	endpointFmt     = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
	defaultLanguage = "ja-JP"
	defaultTimeout  = 15 * time.Second

	// errBodyLimit caps how much of an error response body is included in
	// returned errors.
	errBodyLimit = 512
)

// Option is a functional option for configuring the azure Synthesizer.
type Option func(*Synthesizer)

// WithLanguage sets the xml:lang attribute of the generated SSML document
// (e.g. "ja-JP", "en-US"). Defaults to "ja-JP".
func WithLanguage(lang string) Option {
	return func(s *Synthesizer) {
		s.language = lang
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 15 s.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		s.httpClient.Timeout = d
	}
}

// Synthesizer implements speech.Synthesizer backed by the Azure Speech REST
// API. It is safe for concurrent use.
type Synthesizer struct {
	endpoint   string
	apiKey     string
	language   string
	httpClient *http.Client
}

// New creates an azure Synthesizer for the given service region (e.g.
// "japaneast"). apiKey must be non-empty — a deployment without a credential
// should not construct a backend at all and instead run cache-only.
func New(region, apiKey string, opts ...Option) (*Synthesizer, error) {
	if region == "" {
		return nil, errors.New("azure: region must not be empty")
	}
	if apiKey == "" {
		return nil, errors.New("azure: apiKey must not be empty")
	}
	s := &Synthesizer{
		endpoint: fmt.Sprintf(endpointFmt, region),
		apiKey:   apiKey,
		language: defaultLanguage,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Synthesize renders text as SSML and POSTs it to the regional endpoint,
// returning the response bytes in the requested format.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string, format speech.Format) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("azure: text must not be empty")
	}
	if voice == "" {
		return nil, errors.New("azure: voice must not be empty")
	}

	ssml := buildSSML(text, voice, s.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("azure: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", string(format))
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)
	req.Header.Set("User-Agent", "kioskd")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure: POST synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return nil, fmt.Errorf("azure: synthesis returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("azure: read audio response: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("azure: synthesis returned empty audio")
	}
	return audio, nil
}

// ---- helpers ----

// buildSSML wraps text in the SSML envelope the endpoint expects: a voice
// element with a neutral prosody setting. text is XML-escaped.
func buildSSML(text, voice, language string) string {
	var b strings.Builder
	b.WriteString(`<speak version="1.0" xml:lang="`)
	b.WriteString(language)
	b.WriteString("\">\n  <voice name=\"")
	b.WriteString(voice)
	b.WriteString("\">\n    <prosody rate=\"+0%\" pitch=\"+0%\">")
	b.WriteString(escapeXML(text))
	b.WriteString("</prosody>\n  </voice>\n</speak>")
	return b.String()
}

// escapeXML escapes the characters that would break the SSML document. Quote
// escaping is unnecessary because text only ever appears in element content.
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
