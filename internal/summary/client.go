package summary

import (
	"encoding/json"
	"fmt"
	"time"

	"wellness-monitor/internal/config"
	"wellness-monitor/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const systemPrompt = "You are a healthcare assistant analyzing elderly care patterns. " +
	"Be concise and focus on actionable insights."

// Client 例程摘要客户端
// 优先调用 LLM 生成自然语言摘要，失败或未配置时回退到确定性模板
type Client struct {
	httpClient *resty.Client
	config     *config.Config
	logger     *zap.Logger
}

// NewClient 创建摘要客户端
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.LLM.BaseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.LLM.APIKey != "" {
		httpClient.SetAuthToken(cfg.LLM.APIKey)
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger,
	}
}

// Generate 生成例程摘要（LLM 不可用或失败时回退模板，永不报错）
func (c *Client) Generate(routine *models.DailyRoutine) string {
	if c.config.LLM.APIKey == "" {
		return TemplateSummary(routine)
	}

	text, err := c.llmSummary(routine)
	if err != nil {
		c.logger.Warn("LLM summary failed, using template fallback",
			zap.String("household_id", routine.HouseholdID),
			zap.Error(err),
		)
		return TemplateSummary(routine)
	}

	return text
}

// chatRequest Chat Completions 请求体
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse Chat Completions 响应体
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// llmSummary 调用 LLM 生成摘要
func (c *Client) llmSummary(routine *models.DailyRoutine) (string, error) {
	routineJSON, err := json.Marshal(routine)
	if err != nil {
		return "", fmt.Errorf("failed to marshal routine: %w", err)
	}

	prompt := fmt.Sprintf(
		"Here's a daily routine record in JSON. "+
			"Summarize the household's activity in 2 sentences. "+
			"If the routine looks unusual, mention possible reasons.\n\nRoutine:\n%s\n\nSummary:",
		routineJSON,
	)

	request := chatRequest{
		Model: c.config.LLM.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   128,
		Temperature: 0.7,
		TopP:        1.0,
		Stream:      false,
	}

	var response chatResponse
	resp, err := c.httpClient.R().
		SetBody(request).
		SetResult(&response).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("llm request failed: status=%d", resp.StatusCode())
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("llm response has no choices")
	}

	return response.Choices[0].Message.Content, nil
}

// TemplateSummary 确定性模板摘要（LLM 回退路径）
func TemplateSummary(routine *models.DailyRoutine) string {
	parts := []string{}

	if routine.WakeUpTime != nil {
		parts = append(parts, fmt.Sprintf("Woke up at %s", *routine.WakeUpTime))
	} else if routine.ActivityStart != nil {
		parts = append(parts, fmt.Sprintf("First activity at %s", *routine.ActivityStart))
	}

	if routine.FirstKitchenTime != nil {
		parts = append(parts, fmt.Sprintf("first kitchen activity at %s", *routine.FirstKitchenTime))
	}

	if routine.BathroomEvents > 0 {
		parts = append(parts, fmt.Sprintf("%d bathroom visits", routine.BathroomEvents))
	}

	if routine.BedTime != nil {
		parts = append(parts, fmt.Sprintf("went to bed at %s", *routine.BedTime))
	} else if routine.ActivityEnd != nil {
		parts = append(parts, fmt.Sprintf("last activity at %s", *routine.ActivityEnd))
	}

	if len(parts) == 0 {
		return "No significant activity detected."
	}

	summary := parts[0]
	for _, p := range parts[1:] {
		summary += ", " + p
	}
	return fmt.Sprintf("%s. %d sensor events recorded.", summary, routine.TotalEvents)
}
