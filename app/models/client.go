package models

import (
	"context"
	"errors"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultEmbeddingsModel = "text-embedding-3-small"
	defaultCompletionModel = "gpt-3.5-turbo"
	defaultDimension       = 1536

	// Conservative sub-batch size, well under the provider's 2048-input cap.
	embeddingBatchSize = 100

	completionMaxTokens   = 500
	completionTemperature = 0.3
)

type ClientConfig struct {
	APIKey          string
	BaseURL         string
	EmbeddingsModel string
	CompletionModel string
	Dimension       int
}

var _ Embedder = &LLMClient{}
var _ Completer = &LLMClient{}

type LLMClient struct {
	client          *openai.Client
	embeddingsModel string
	completionModel string
	dimension       int
}

// New builds the embedding and completion capabilities from one provider
// configuration. Without an API key both come back as Disabled: embeds
// degrade to absent vectors and completions report the reason, with no
// network call ever attempted.
func New(cfg ClientConfig) (Embedder, Completer) {
	if cfg.APIKey == "" {
		log.Println("⚠️ OPENAI_API_KEY not set, embedding and completion disabled")
		d := Disabled{Reason: "OPENAI_API_KEY not set"}
		return d, d
	}
	c := NewLLMClient(cfg)
	return c, c
}

func NewLLMClient(cfg ClientConfig) *LLMClient {
	if cfg.EmbeddingsModel == "" {
		cfg.EmbeddingsModel = defaultEmbeddingsModel
	}
	if cfg.CompletionModel == "" {
		cfg.CompletionModel = defaultCompletionModel
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = defaultDimension
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	return &LLMClient{
		client:          openai.NewClientWithConfig(oc),
		embeddingsModel: cfg.EmbeddingsModel,
		completionModel: cfg.CompletionModel,
		dimension:       cfg.Dimension,
	}
}

func (mc *LLMClient) Available() bool { return true }

func (mc *LLMClient) Dimension() int { return mc.dimension }

func (mc *LLMClient) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	if len(texts) == 0 {
		return [][]float32{}
	}

	// Embedding models treat newlines as noise.
	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = strings.ReplaceAll(t, "\n", " ")
	}

	out := make([][]float32, len(texts))
	for offset := 0; offset < len(cleaned); offset += embeddingBatchSize {
		end := offset + embeddingBatchSize
		if end > len(cleaned) {
			end = len(cleaned)
		}

		resp, err := mc.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(mc.embeddingsModel),
			Input: cleaned[offset:end],
		})
		if err != nil || len(resp.Data) != end-offset {
			log.Printf("⚠️ Embeddings batch of %d texts failed: %v", end-offset, err)
			return make([][]float32, len(texts))
		}

		for _, item := range resp.Data {
			i := offset + item.Index
			if i < offset || i >= end {
				log.Printf("⚠️ Embeddings batch returned out-of-range index %d", item.Index)
				return make([][]float32, len(texts))
			}
			out[i] = item.Embedding
		}
	}

	return out
}

func (mc *LLMClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := mc.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: mc.completionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
