package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"textlens/internal/config"
)

const watsonAPIVersion = "2020-04-01"

// WatsonAnalyzer sends the text to an IBM Watson Assistant v2 session and
// returns the first entry of the assistant's text output.
type WatsonAnalyzer struct {
	http        *resty.Client
	sessionID   string
	assistantID string
}

// NewWatsonAnalyzer builds the assistant client. The session and assistant
// identifiers are fixed at startup.
func NewWatsonAnalyzer(cfg config.IBMConfig) *WatsonAnalyzer {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second)
	return &WatsonAnalyzer{
		http:        client,
		sessionID:   cfg.SessionID,
		assistantID: cfg.AssistantID,
	}
}

type watsonMessageRequest struct {
	Input watsonInput `json:"input"`
}

type watsonInput struct {
	Text string `json:"text"`
}

type watsonMessageResponse struct {
	Output struct {
		Text []string `json:"text"`
	} `json:"output"`
}

// Name implements Analyzer.
func (a *WatsonAnalyzer) Name() string { return "ibm" }

// Analyze implements Analyzer.
func (a *WatsonAnalyzer) Analyze(ctx context.Context, text string) (string, error) {
	var out watsonMessageResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParam("version", watsonAPIVersion).
		SetBody(watsonMessageRequest{Input: watsonInput{Text: text}}).
		SetResult(&out).
		Post(fmt.Sprintf("/v2/assistants/%s/sessions/%s/message", a.assistantID, a.sessionID))
	if err != nil {
		return "", fmt.Errorf("watson message: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("watson message returned %d", resp.StatusCode())
	}
	if len(out.Output.Text) == 0 {
		return "", errors.New("watson returned no text output")
	}
	return out.Output.Text[0], nil
}
