package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"inside-notes/pkg"
)

// ErrMissingCredential is returned by every call when no API key is configured.
var ErrMissingCredential = errors.New("llm: api key not configured")

// ErrEmptyResponse is returned when the model answers with no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// Client is the generative-text capability used by the annotation workflow
// and the report generator.
//
// Rewrite renders the style template around text and returns the rewritten
// prose.  Transcribe turns a recorded audio blob into text.  Summarize answers
// a fully built report prompt.
type Client interface {
	Rewrite(ctx context.Context, text, style string) (string, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	Summarize(ctx context.Context, prompt string) (string, error)
	Ping(ctx context.Context) error
}

// Config selects credentials, endpoint and models for OpenAIClient.
type Config struct {
	APIKey          string
	BaseURL         string
	ChatModel       string
	SummaryModel    string
	TranscribeModel string
	Language        string
}

// OpenAIClient calls the OpenAI API for rewrite, transcription and report
// summaries.
type OpenAIClient struct {
	client          *openai.Client
	chatModel       string
	summaryModel    string
	transcribeModel string
	language        string
}

// NewOpenAIClient constructs an OpenAI-backed client.  Empty model names fall
// back to sensible defaults.  A missing API key yields a client whose calls
// fail with ErrMissingCredential.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	c := &OpenAIClient{
		chatModel:       cfg.ChatModel,
		summaryModel:    cfg.SummaryModel,
		transcribeModel: cfg.TranscribeModel,
		language:        cfg.Language,
	}
	if c.chatModel == "" {
		c.chatModel = "gpt-4o-mini"
	}
	if c.summaryModel == "" {
		c.summaryModel = c.chatModel
	}
	if c.transcribeModel == "" {
		c.transcribeModel = openai.Whisper1
	}
	if c.language == "" {
		c.language = "pt"
	}
	if cfg.APIKey == "" {
		return c
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	c.client = openai.NewClientWithConfig(oc)
	return c
}

// Rewrite sends the rendered template to the chat completion API.
func (c *OpenAIClient) Rewrite(ctx context.Context, text, style string) (string, error) {
	prompt := pkg.Prompt{Content: style}.Render(text)
	out, err := c.complete(ctx, c.chatModel, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("rewrite: %w", err)
	}
	return out, nil
}

// Summarize generates the final visit report from a prepared prompt.
func (c *OpenAIClient) Summarize(ctx context.Context, prompt string) (string, error) {
	out, err := c.complete(ctx, c.summaryModel, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "Responda apenas em português do Brasil."},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return out, nil
}

// Transcribe uploads the audio to the transcription endpoint.  An empty
// result is returned as-is; callers decide whether that is a failure.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if c.client == nil {
		return "", ErrMissingCredential
	}
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		FilePath: "audio" + extensionFor(mimeType),
		Reader:   bytes.NewReader(audio),
		Prompt:   TranscriptionInstruction,
		Language: c.language,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// Ping validates the credential with a minimal completion.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	_, err := c.complete(ctx, c.chatModel, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "hello"},
	})
	return err
}

func (c *OpenAIClient) complete(ctx context.Context, model string, msgs []openai.ChatCompletionMessage) (string, error) {
	if c.client == nil {
		return "", ErrMissingCredential
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// TranscriptionInstruction biases the transcription model towards field notes.
const TranscriptionInstruction = "Transcreva este áudio para o português do Brasil. O áudio contém uma anotação de um técnico de TI em campo."

func extensionFor(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(base) {
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	default:
		return ".webm"
	}
}
