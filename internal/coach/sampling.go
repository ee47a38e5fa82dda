// internal/coach/sampling.go
package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Generator is the external AI service: one request in, raw reply text out.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

type GatewayConfig struct {
	URL         string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// GatewayClient calls the completion tool of an MCP gateway over JSON-RPC.
type GatewayClient struct {
	httpClient  *http.Client
	gatewayURL  string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

func NewGatewayClient(cfg GatewayConfig) *GatewayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GatewayClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		gatewayURL:  strings.TrimRight(cfg.URL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (g *GatewayClient) Model() string {
	return g.model
}

func (g *GatewayClient) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	completionRequest := map[string]interface{}{
		"model":         g.model,
		"system_prompt": req.SystemInstruction,
		"messages":      toGatewayMessages(req.Contents),
		"max_tokens":    g.maxTokens,
		"temperature":   g.temperature,
		"response_format": map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   "nutripal_reply",
				"schema": req.ResponseSchema,
			},
		},
	}

	gatewayResponse, err := g.callGateway(ctx, "create_completion", completionRequest)
	if err != nil {
		return "", fmt.Errorf("failed to get AI completion: %w", err)
	}

	return completionContent(gatewayResponse), nil
}

// toGatewayMessages converts contents to chat-completion messages. Turns that
// carry an image use the multi-part content form.
func toGatewayMessages(contents []Content) []map[string]interface{} {
	messages := make([]map[string]interface{}, 0, len(contents))
	for _, c := range contents {
		role := "user"
		if c.Role == RoleModel {
			role = "assistant"
		}

		hasImage := false
		for _, p := range c.Parts {
			if p.InlineData != nil {
				hasImage = true
			}
		}

		if !hasImage {
			texts := make([]string, 0, len(c.Parts))
			for _, p := range c.Parts {
				texts = append(texts, p.Text)
			}
			messages = append(messages, map[string]interface{}{
				"role":    role,
				"content": strings.Join(texts, "\n"),
			})
			continue
		}

		parts := make([]map[string]interface{}, 0, len(c.Parts))
		for _, p := range c.Parts {
			if p.InlineData != nil {
				parts = append(parts, map[string]interface{}{
					"type": "image_url",
					"image_url": map[string]interface{}{
						"url": fmt.Sprintf("data:%s;base64,%s", p.InlineData.MimeType, p.InlineData.Data),
					},
				})
				continue
			}
			parts = append(parts, map[string]interface{}{"type": "text", "text": p.Text})
		}
		messages = append(messages, map[string]interface{}{
			"role":    role,
			"content": parts,
		})
	}
	return messages
}

func (g *GatewayClient) callGateway(ctx context.Context, toolName string, args interface{}) (string, error) {
	url := fmt.Sprintf("%s/openrouter-gateway", g.gatewayURL)

	requestData := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      toolName,
			"arguments": args,
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("request failed with status %d and couldn't read body: %v", resp.StatusCode, err)
		}
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var mcpResponse map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&mcpResponse); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if rpcErr, ok := mcpResponse["error"].(map[string]interface{}); ok {
		return "", fmt.Errorf("gateway error: %v", rpcErr["message"])
	}

	// Extract the result content
	if result, ok := mcpResponse["result"].(map[string]interface{}); ok {
		if content, ok := result["content"].([]interface{}); ok && len(content) > 0 {
			if textContent, ok := content[0].(map[string]interface{}); ok {
				if text, ok := textContent["text"].(string); ok {
					return text, nil
				}
			}
		}
	}

	return "", fmt.Errorf("unexpected response format")
}

// completionContent unwraps the gateway's completion envelope
// ({"content": "..."}). Text that is not such an envelope is the reply itself.
func completionContent(gatewayText string) string {
	var completion map[string]interface{}
	if err := json.Unmarshal([]byte(gatewayText), &completion); err != nil {
		return gatewayText
	}
	if content, ok := completion["content"].(string); ok {
		return content
	}
	return gatewayText
}
