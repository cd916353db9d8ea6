package azure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoha-dev/kioskd/pkg/speech"
)

// mustNew is a test helper that calls New and fails the test on error.
func mustNew(t *testing.T, region, apiKey string, opts ...Option) *Synthesizer {
	t.Helper()
	s, err := New(region, apiKey, opts...)
	if err != nil {
		t.Fatalf("New(%q, ...): unexpected error: %v", region, err)
	}
	return s
}

// ---- construction ----

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := mustNew(t, "japaneast", "key")
		if want := "https://japaneast.tts.speech.microsoft.com/cognitiveservices/v1"; s.endpoint != want {
			t.Errorf("endpoint = %q, want %q", s.endpoint, want)
		}
		if s.language != defaultLanguage {
			t.Errorf("language = %q, want %q", s.language, defaultLanguage)
		}
		if s.httpClient.Timeout != defaultTimeout {
			t.Errorf("timeout = %v, want %v", s.httpClient.Timeout, defaultTimeout)
		}
	})

	t.Run("options", func(t *testing.T) {
		s := mustNew(t, "eastus", "key",
			WithLanguage("en-US"),
			WithTimeout(3*time.Second),
		)
		if s.language != "en-US" {
			t.Errorf("language = %q, want en-US", s.language)
		}
		if s.httpClient.Timeout != 3*time.Second {
			t.Errorf("timeout = %v, want 3s", s.httpClient.Timeout)
		}
	})

	t.Run("empty region", func(t *testing.T) {
		if _, err := New("", "key"); err == nil {
			t.Fatal("expected error for empty region")
		}
	})

	t.Run("empty key", func(t *testing.T) {
		if _, err := New("japaneast", ""); err == nil {
			t.Fatal("expected error for empty apiKey")
		}
	})
}

// ---- Synthesize ----

func TestSynthesize(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotBody string
		var gotFormat, gotKey, gotContentType string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
			gotFormat = r.Header.Get("X-Microsoft-OutputFormat")
			gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
			gotContentType = r.Header.Get("Content-Type")
			w.Write([]byte("mp3-bytes"))
		}))
		defer srv.Close()

		s := mustNew(t, "japaneast", "secret")
		s.endpoint = srv.URL

		audio, err := s.Synthesize(context.Background(), "計測成功！", "ja-JP-NanamiNeural", speech.FormatMP3)
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		if string(audio) != "mp3-bytes" {
			t.Errorf("audio = %q, want mp3-bytes", audio)
		}
		if gotFormat != string(speech.FormatMP3) {
			t.Errorf("X-Microsoft-OutputFormat = %q, want %q", gotFormat, speech.FormatMP3)
		}
		if gotKey != "secret" {
			t.Errorf("Ocp-Apim-Subscription-Key = %q, want secret", gotKey)
		}
		if gotContentType != "application/ssml+xml" {
			t.Errorf("Content-Type = %q, want application/ssml+xml", gotContentType)
		}
		if !strings.Contains(gotBody, `<voice name="ja-JP-NanamiNeural">`) {
			t.Errorf("SSML body missing voice element: %q", gotBody)
		}
		if !strings.Contains(gotBody, "計測成功！") {
			t.Errorf("SSML body missing prompt text: %q", gotBody)
		}
	})

	t.Run("server error includes body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		s := mustNew(t, "japaneast", "secret")
		s.endpoint = srv.URL

		_, err := s.Synthesize(context.Background(), "hi", "voice", speech.FormatMP3)
		if err == nil {
			t.Fatal("expected error for non-200 response")
		}
		if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exceeded") {
			t.Errorf("error %q should mention status and body", err)
		}
	})

	t.Run("empty audio is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		s := mustNew(t, "japaneast", "secret")
		s.endpoint = srv.URL

		if _, err := s.Synthesize(context.Background(), "hi", "voice", speech.FormatMP3); err == nil {
			t.Fatal("expected error for empty audio body")
		}
	})

	t.Run("empty text rejected", func(t *testing.T) {
		s := mustNew(t, "japaneast", "secret")
		if _, err := s.Synthesize(context.Background(), "  ", "voice", speech.FormatMP3); err == nil {
			t.Fatal("expected error for blank text")
		}
	})

	t.Run("empty voice rejected", func(t *testing.T) {
		s := mustNew(t, "japaneast", "secret")
		if _, err := s.Synthesize(context.Background(), "hi", "", speech.FormatMP3); err == nil {
			t.Fatal("expected error for empty voice")
		}
	})
}

// ---- SSML helpers ----

func TestBuildSSML(t *testing.T) {
	ssml := buildSSML("a < b & c", "ja-JP-AoiNeural", "ja-JP")

	if !strings.Contains(ssml, `xml:lang="ja-JP"`) {
		t.Errorf("ssml missing language: %q", ssml)
	}
	if !strings.Contains(ssml, "a &lt; b &amp; c") {
		t.Errorf("ssml text not escaped: %q", ssml)
	}
	if strings.Contains(ssml, "a < b") {
		t.Errorf("ssml contains raw markup characters: %q", ssml)
	}
}

func TestEscapeXML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a&b", "a&amp;b"},
		{"<tag>", "&lt;tag&gt;"},
		{"計測を開始します。", "計測を開始します。"},
	}
	for _, c := range cases {
		if got := escapeXML(c.in); got != c.want {
			t.Errorf("escapeXML(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
