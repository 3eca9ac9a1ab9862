package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/omnimind-labs/omnimind/internal/domain"
	"github.com/omnimind-labs/omnimind/internal/metrics"
)

const analyzerSystemPrompt = "You are a document librarian. Given an uploaded file, reply with ONLY a JSON " +
	"object of the shape {\"tags\": [...], \"summary\": \"...\"}: between 3 and 5 short lowercase topic tags " +
	"and a one-sentence summary of the content."

// Analyzer implements domain.Analyzer over the OpenAI-compatible chat API.
// Images go through the vision path; other binary types are described by
// filename, MIME type, and size.
type Analyzer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// AnalyzerConfig holds the tagging provider settings.
type AnalyzerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewAnalyzer creates an OpenAI-compatible tagging provider.
func NewAnalyzer(cfg *AnalyzerConfig) *Analyzer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Analyzer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Analyze implements domain.Analyzer. Any transport failure or unparseable
// reply wraps domain.ErrTaggingFailed.
func (a *Analyzer) Analyze(ctx context.Context, req domain.AnalyzeRequest) (domain.Analysis, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analyzerSystemPrompt},
			a.userMessage(req),
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)

	// Duration covers every outcome, not just success.
	metrics.TaggingRequestDuration.WithLabelValues(a.model).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.TaggingRequestsTotal.WithLabelValues(a.model, "error").Inc()
		return domain.Analysis{}, parseAPIError(err, domain.ErrTaggingFailed)
	}

	if len(resp.Choices) == 0 {
		metrics.TaggingRequestsTotal.WithLabelValues(a.model, "error").Inc()
		return domain.Analysis{}, fmt.Errorf("empty chat response: %w", domain.ErrTaggingFailed)
	}

	analysis, err := domain.ParseAnalysis([]byte(stripFences(resp.Choices[0].Message.Content)))
	if err != nil {
		metrics.TaggingRequestsTotal.WithLabelValues(a.model, "unparseable").Inc()
		return domain.Analysis{}, err
	}

	metrics.TaggingRequestsTotal.WithLabelValues(a.model, "success").Inc()

	return analysis, nil
}

// userMessage builds the per-type user turn: plain text excerpt for textual
// uploads, a data-URL image part for images, a factual description otherwise.
func (a *Analyzer) userMessage(req domain.AnalyzeRequest) openai.ChatCompletionMessage {
	switch {
	case domain.IsTextualMime(req.MimeType):
		return openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			Content: fmt.Sprintf("Filename: %s\nMIME type: %s\n\n%s",
				req.Filename, req.MimeType, string(req.Content)),
		}
	case strings.HasPrefix(req.MimeType, "image/"):
		return openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: fmt.Sprintf("Filename: %s\nMIME type: %s\nTag and summarize this image.",
						req.Filename, req.MimeType),
				},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL(req.MimeType, req.Content),
						Detail: openai.ImageURLDetailLow,
					},
				},
			},
		}
	default:
		// Audio/video/other binary: the chat API cannot carry the payload, so
		// the model works from what it can see about the file.
		return openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			Content: fmt.Sprintf("Filename: %s\nMIME type: %s\nSize: %d bytes\n"+
				"Tag and summarize this media file from its name and type.",
				req.Filename, req.MimeType, len(req.Content)),
		}
	}
}

func dataURL(mimeType string, raw []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

// stripFences removes a markdown code fence around a JSON reply. Models
// occasionally wrap despite the JSON response format.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
