package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philm28/always/internal/ai"
)

func newTestClient(url string) *ai.Client {
	return ai.NewClient(ai.Config{
		BaseURL:         url,
		APIKey:          "test-key",
		ChatModel:       "test-chat",
		VisionModel:     "test-vision",
		TranscribeModel: "test-whisper",
	})
}

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-chat", body["model"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello there"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	got, err := client.Complete(context.Background(), client.ChatModel(),
		[]ai.Message{ai.Text("user", "hi")}, 100, 0.7)

	require.NoError(t, err)
	assert.Equal(t, "hello there", got)
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "test-chat", []ai.Message{ai.Text("user", "hi")}, 100, 0.7)

	assert.ErrorContains(t, err, "no choices")
}

func TestComplete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "test-chat", []ai.Message{ai.Text("user", "hi")}, 100, 0.7)

	assert.ErrorContains(t, err, "429")
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "test-whisper", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "voicemail.mp3", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hi sweetheart, call me back"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	got, err := client.Transcribe(context.Background(), "voicemail.mp3", []byte("fake-audio-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "hi sweetheart, call me back", got)
}

func TestImagePrompt_Shape(t *testing.T) {
	msg := ai.ImagePrompt("describe this", "https://example.com/photo.jpg")

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"image_url"`)
	assert.Contains(t, string(raw), "https://example.com/photo.jpg")
	assert.Equal(t, "user", msg.Role)
}
