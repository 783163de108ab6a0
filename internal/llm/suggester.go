package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/openai/openai-go/v2/shared/constant"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// ErrInvalidStoryURL is returned when the story URL is not an absolute http(s) URL.
var ErrInvalidStoryURL = eris.New("story url must be an absolute http or https url")

// SourceSuggester proposes the name of the publication a story URL belongs to.
type SourceSuggester interface {
	SuggestSource(ctx context.Context, storyURL string) (string, error)
}

// SuggesterOptions configures the chat-backed suggester.
type SuggesterOptions struct {
	Client       *Client
	Model        string
	SystemPrompt string
}

type chatSuggester struct {
	client         *Client
	logger         *logrus.Logger
	model          string
	systemPrompt   string
	responseFormat openai.ChatCompletionNewParamsResponseFormatUnion
}

const defaultSuggesterSystemPrompt = "You identify news publications. Given the URL of a news story, answer with the common name of the publication that published it, for example \"New York Times\". Answer with an empty string when unsure."

// NewSourceSuggester constructs a SourceSuggester backed by chat completions.
func NewSourceSuggester(opts SuggesterOptions) (SourceSuggester, error) {
	if opts.Client == nil {
		return nil, eris.New("llm client is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("suggester model is required")
	}

	systemPrompt := strings.TrimSpace(opts.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultSuggesterSystemPrompt
	}

	return &chatSuggester{
		client:         opts.Client,
		logger:         opts.Client.logger,
		model:          model,
		systemPrompt:   systemPrompt,
		responseFormat: buildSourceResponseFormat(),
	}, nil
}

func (s *chatSuggester) SuggestSource(ctx context.Context, storyURL string) (string, error) {
	trimmed := strings.TrimSpace(storyURL)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", eris.Wrapf(ErrInvalidStoryURL, "suggesting source for %q", trimmed)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.systemPrompt),
			openai.UserMessage(fmt.Sprintf("Which publication published %s? Return JSON that matches the provided schema.", trimmed)),
		},
		ResponseFormat: s.responseFormat,
		Temperature:    openai.Float(0),
	}

	completion, err := s.client.chat.New(ctx, params)
	if err != nil {
		s.logError(logrus.Fields{"url": trimmed}, err, "requesting chat completion")
		return "", eris.Wrap(err, "requesting chat completion")
	}

	if len(completion.Choices) == 0 {
		err := eris.New("llm completion returned no choices")
		s.logError(logrus.Fields{"url": trimmed}, err, "processing chat completion")
		return "", err
	}

	choice := completion.Choices[0]
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		err := eris.Errorf("llm refused to suggest a source: %s", refusal)
		s.logError(logrus.Fields{"url": trimmed}, err, "suggester refused")
		return "", err
	}

	var payload struct {
		Source string `json:"source"`
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", eris.New("llm response content is empty")
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		s.logError(logrus.Fields{"url": trimmed}, err, "parsing llm response")
		return "", eris.Wrap(err, "decoding llm response json")
	}

	return strings.TrimSpace(payload.Source), nil
}

func (s *chatSuggester) logError(fields logrus.Fields, err error, message string) {
	if s.logger == nil || err == nil {
		return
	}

	entry := s.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func buildSourceResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	schema := map[string]any{
		"type":                 "object",
		"required":             []string{"source"},
		"additionalProperties": false,
		"properties": map[string]any{
			"source": map[string]any{
				"type":        "string",
				"description": "Name of the originating publication.",
			},
		},
	}

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        "recommendation_source",
				Description: openai.String("Publication name for a news story"),
				Strict:      openai.Bool(true),
				Schema:      schema,
			},
			Type: constant.ValueOf[constant.JSONSchema](),
		},
	}
}
