/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.0-flash"

const maxRecommendations = 5

// geminiClient implements the LLMClient interface using the Google Gemini API.
type geminiClient struct {
	client *genai.Client
	cfg    Config
}

// Summary is the model's reading of a quality assessment.
type Summary struct {
	Narrative       string   `json:"narrative" yaml:"narrative"`
	Recommendations []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// LLMClient defines the interface for interacting with a generative AI model.
type LLMClient interface {
	// SummarizeQuality turns the facts of an assessment into a short
	// narrative and a list of remediation steps.
	SummarizeQuality(ctx context.Context, datasetName, facts string) (Summary, error)

	// IsAPIKeyValid checks if the configured API key is functional.
	IsAPIKeyValid(ctx context.Context) error

	// Close cleans up any resources used by the client.
	Close() error
}

// Config holds configuration for the GenAI client.
type Config struct {
	APIKey string
	Model  string
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg Config) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cannot create Gemini client: API key is missing")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
		zap.L().Info("Gemini model not specified, using default", zap.String("model", cfg.Model))
	}

	return &geminiClient{
		client: client,
		cfg:    cfg,
	}, nil
}

// Close cleans up the underlying Gemini client.
func (c *geminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAPIKeyValid checks if the Gemini API key is valid by listing models.
func (c *geminiClient) IsAPIKeyValid(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("gemini client not initialized (likely missing API key)")
	}

	_, err := c.client.ListModels(ctx).Next()
	if err != nil {
		if st, ok := status.FromError(err); ok {
			if st.Code() == codes.Unauthenticated || st.Code() == codes.PermissionDenied {
				return fmt.Errorf("invalid Gemini API key or insufficient permissions: %w", err)
			}
		}
		return fmt.Errorf("failed to verify Gemini API key by listing models: %w", err)
	}
	return nil
}

// SummarizeQuality asks the model for a narrative over facts, a plain text
// rendering of scores, statistics and alerts.
func (c *geminiClient) SummarizeQuality(ctx context.Context, datasetName, facts string) (Summary, error) {
	if c.client == nil {
		return Summary{}, fmt.Errorf("gemini client not initialized")
	}
	if strings.TrimSpace(facts) == "" {
		return Summary{}, nil
	}

	model := c.client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(600)
	model.SetTopP(0.9)
	model.SetTopK(40)

	resp, err := model.GenerateContent(ctx, genai.Text(BuildSummaryPrompt(datasetName, facts)))
	if err != nil {
		return Summary{}, fmt.Errorf("Gemini API call failed: %w", err)
	}
	text, err := getFirstTextPart(resp)
	if err != nil {
		return Summary{}, err
	}

	summary, err := ParseSummary(text)
	if err != nil {
		zap.L().Warn("Could not extract summary from Gemini response",
			zap.String("dataset", datasetName), zap.Error(err))
		return Summary{}, nil
	}
	zap.L().Info("Generated quality summary",
		zap.String("dataset", datasetName), zap.String("model", c.cfg.Model))
	return summary, nil
}

// BuildSummaryPrompt renders the prompt sent by SummarizeQuality.
func BuildSummaryPrompt(datasetName, facts string) string {
	return fmt.Sprintf(`
	You are a data quality analyst. Summarize the quality of the dataset '%s' based ONLY on the facts below.

	********** Assessment Facts **********
	%s
	********** End Assessment Facts **********

	**Instructions:**
	1. Write a concise narrative (max 120 words) naming the weakest metrics and columns and what they imply. Output it ONLY within <result></result> tags.
	2. List at most %d concrete remediation steps, one per line, within <recommendations></recommendations> tags. Output empty tags if the data needs no remediation.
	3. Do NOT invent numbers that are not in the facts.

	Begin analysis:
	`, datasetName, facts, maxRecommendations)
}

// ParseSummary extracts the tagged narrative and recommendations from a
// model response. The narrative tags are required.
func ParseSummary(text string) (Summary, error) {
	narrative, found := extractContentBetween(text, "<result>", "</result>")
	if !found {
		return Summary{}, fmt.Errorf("tags '<result>' and '</result>' not found in response")
	}
	s := Summary{Narrative: narrative}
	if recs, ok := extractContentBetween(text, "<recommendations>", "</recommendations>"); ok {
		s.Recommendations = parseLines(recs)
		if len(s.Recommendations) > maxRecommendations {
			s.Recommendations = s.Recommendations[:maxRecommendations]
		}
	}
	return s, nil
}

// getFirstTextPart extracts the first text part from a Gemini response.
func getFirstTextPart(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		safetyRatings := "none"
		if resp != nil && len(resp.Candidates) > 0 {
			finishReason = resp.Candidates[0].FinishReason.String()
			if resp.Candidates[0].SafetyRatings != nil {
				safetyRatings = fmt.Sprintf("%v", resp.Candidates[0].SafetyRatings)
			}
		}
		return "", fmt.Errorf("empty or incomplete response from Gemini API. FinishReason: %s, SafetyRatings: %s", finishReason, safetyRatings)
	}
	part := resp.Candidates[0].Content.Parts[0]
	text, ok := part.(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response part type: %T", part)
	}
	return string(text), nil
}

// extractContentBetween extracts content between start and end tags from a string.
func extractContentBetween(text, startTag, endTag string) (string, bool) {
	startIndex := strings.Index(text, startTag)
	if startIndex == -1 {
		return "", false
	}
	startIndex += len(startTag)
	endIndex := strings.Index(text[startIndex:], endTag)
	if endIndex == -1 {
		return "", false
	}
	return strings.TrimSpace(text[startIndex : startIndex+endIndex]), true
}

// parseLines splits s into trimmed non-empty lines, dropping list markers.
func parseLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
