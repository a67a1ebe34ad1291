package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"scribechat/internal/intake"
)

func testAudio(t *testing.T) *intake.Audio {
	t.Helper()
	audio, err := intake.FromUpload(strings.NewReader("fake-audio"), "talk.wav")
	require.NoError(t, err)
	return audio
}

func TestOpenAI_Transcribe(t *testing.T) {
	var gotModel, gotFilename, gotLanguage string
	var gotBytes []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		gotFilename = header.Filename
		gotBytes, err = io.ReadAll(f)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hello world","language":"english","duration":10.5}`))
	}))
	defer srv.Close()

	client := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o-transcribe"})

	resp, err := client.Transcribe(context.Background(), TranscriptionRequest{
		Audio:    testAudio(t),
		Language: "en",
	})
	require.NoError(t, err)
	require.Equal(t, "hello world", resp.Text)
	require.Equal(t, "english", resp.Language)
	require.InDelta(t, 10.5, resp.Duration, 0.001)

	require.Equal(t, "gpt-4o-transcribe", gotModel)
	require.Equal(t, "en", gotLanguage)
	require.Equal(t, "talk.wav", gotFilename)
	require.Equal(t, []byte("fake-audio"), gotBytes)
}

func TestOpenAI_Transcribe_SynthesizesPartFilename(t *testing.T) {
	var gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		gotFilename = header.Filename
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	client := NewOpenAI(OpenAIConfig{BaseURL: srv.URL})

	audio, err := intake.FromBase64("YXVkaW8=", ".webm")
	require.NoError(t, err)

	_, err = client.Transcribe(context.Background(), TranscriptionRequest{Audio: audio})
	require.NoError(t, err)
	require.Equal(t, "audio.webm", gotFilename)
}

func TestOpenAI_Transcribe_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid audio"}}`))
	}))
	defer srv.Close()

	client := NewOpenAI(OpenAIConfig{BaseURL: srv.URL})

	_, err := client.Transcribe(context.Background(), TranscriptionRequest{Audio: testAudio(t)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 400")
	require.Contains(t, err.Error(), "invalid audio")
}

func TestOpenAI_Defaults(t *testing.T) {
	client := NewOpenAI(OpenAIConfig{})
	require.Equal(t, "https://api.openai.com/v1", client.cfg.BaseURL)
	require.Equal(t, "gpt-4o-transcribe", client.cfg.Model)
}

func TestLocal_NameAndDefaults(t *testing.T) {
	client := NewLocal(LocalConfig{})
	require.Equal(t, "local-whisper", client.Name())
	require.Equal(t, "http://localhost:8178", client.OpenAI.cfg.BaseURL)
}
