// Package ai is a minimal client for an OpenAI-compatible API: chat
// completions (text and vision) and audio transcription. There is no retry
// layer; callers surface failures and the user retries manually.
package ai

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type Config struct {
	BaseURL         string
	APIKey          string
	ChatModel       string
	VisionModel     string
	TranscribeModel string
}

type Client struct {
	baseURL         string
	chatModel       string
	visionModel     string
	transcribeModel string
	http            *resty.Client
}

func NewClient(cfg Config) *Client {
	client := resty.New().
		SetAuthToken(cfg.APIKey).
		SetTimeout(120 * time.Second)

	return &Client{
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		chatModel:       cfg.ChatModel,
		visionModel:     cfg.VisionModel,
		transcribeModel: cfg.TranscribeModel,
		http:            client,
	}
}

func (c *Client) ChatModel() string   { return c.chatModel }
func (c *Client) VisionModel() string { return c.visionModel }

// Message is one chat turn. Content is either a plain string or, for vision
// requests, a list of content parts.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

// Text builds a plain text message.
func Text(role, text string) Message {
	return Message{Role: role, Content: text}
}

// ImagePrompt builds a user message pairing an instruction with an image URL
// for a vision-capable model.
func ImagePrompt(text, imageURL string) Message {
	return Message{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &imageURLPart{URL: imageURL}},
		},
	}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat-completion request and returns the first choice's
// text content.
func (c *Client) Complete(ctx context.Context, model string, messages []Message, maxTokens int, temperature float64) (string, error) {
	var result completionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(completionRequest{
			Model:       model,
			Messages:    messages,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		}).
		SetResult(&result).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("completion failed: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe submits audio bytes to the speech-to-text endpoint.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	var result transcriptionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(audio)).
		SetFormData(map[string]string{"model": c.transcribeModel}).
		SetResult(&result).
		Post(c.baseURL + "/audio/transcriptions")
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("transcription failed: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	return result.Text, nil
}
