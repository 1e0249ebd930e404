package client

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const judgeInstruction = `You decide whether two app-generation requests can share one structured answer.
Answer YES only if both describe the same application idea: same purpose, audience, features and data.
Answer NO if they differ in any of these. Reply with the single word YES or NO.`

// GeminiJudge confirms a cache candidate before it is reused. Any error counts
// as a mismatch so the request is generated fresh.
type GeminiJudge struct {
	client *genai.Client
	model  string
}

func NewGeminiJudge(client *genai.Client, model string) *GeminiJudge {
	return &GeminiJudge{client: client, model: model}
}

func (j *GeminiJudge) IsMatch(ctx context.Context, userPrompt, cachedPrompt string) bool {
	prompt := fmt.Sprintf("Request A:\n%s\n\nRequest B:\n%s", userPrompt, cachedPrompt)
	resp, err := j.client.Models.GenerateContent(ctx, j.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(judgeInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		MaxOutputTokens:   4,
	})
	if err != nil {
		return false
	}
	return isYes(resp.Text())
}

func isYes(answer string) bool {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	return strings.HasPrefix(strings.Trim(answer, "\"'*. "), "YES")
}
