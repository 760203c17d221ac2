package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/iwvelando/loan-compare/internal/config"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of a failed provider response is read into the error.
const maxErrorBody = 4096

// OpenAIGenerator requests the report from an OpenAI-compatible chat-completions endpoint.
type OpenAIGenerator struct {
	apiKey     string
	apiURL     string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     *zap.Logger
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewOpenAIGenerator configures a client from cfg. Missing values fall back to the defaults.
func NewOpenAIGenerator(cfg config.ReportConfig, logger *zap.Logger) *OpenAIGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &OpenAIGenerator{
		apiKey:     cfg.APIKey,
		apiURL:     cfg.APIURL,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
	if g.apiURL == "" {
		g.apiURL = constants.DefaultReportAPIURL
	}
	if g.model == "" {
		g.model = constants.DefaultReportModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = constants.DefaultReportMaxTokens
	}
	if cfg.Timeout <= 0 {
		g.httpClient.Timeout = constants.DefaultReportTimeout
	}
	return g
}

// Generate sends the rendered prompt and returns the first choice. A rejected request returns
// the provider's own message as the error text.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	userPrompt, err := BuildPrompt(req)
	if err != nil {
		return Response{}, err
	}

	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.apiKey))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("report provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := providerMessage(raw)
		g.logger.Warn("report provider rejected request",
			zap.String("op", "report.OpenAIGenerator.Generate"),
			zap.Int("status", resp.StatusCode),
			zap.String("error", message),
		)
		if message == "" {
			return Response{}, fmt.Errorf("report provider returned status %d", resp.StatusCode)
		}
		return Response{}, errors.New(message)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Response{}, fmt.Errorf("decode report provider response: %w", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return Response{}, fmt.Errorf("report provider returned no report")
	}

	g.logger.Debug("comparative report generated",
		zap.String("op", "report.OpenAIGenerator.Generate"),
		zap.String("model", g.model),
		zap.Int("options", len(req.FinanceOptions)),
	)
	return Response{ComparativeReport: decoded.Choices[0].Message.Content}, nil
}

func providerMessage(raw []byte) string {
	var decoded chatError
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error.Message != "" {
		return decoded.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
