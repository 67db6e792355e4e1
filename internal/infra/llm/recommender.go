// Package llm implements the recommender on an OpenAI-compatible chat API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"gamified-lms/internal/domain"
)

// Recommender asks a chat model for JSON answers shaped like the recommendation service's.
type Recommender struct {
	api   *openai.Client
	model string
}

func New(baseURL, apiKey, modelName string) *Recommender {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &Recommender{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

func (r *Recommender) Recommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.Recommendation, error) {
	var out struct {
		Recommendations []domain.Recommendation `json:"recommendations"`
	}
	if err := r.complete(ctx, buildRecommendPrompt(req), &out); err != nil {
		return nil, err
	}
	if len(out.Recommendations) > 4 {
		out.Recommendations = out.Recommendations[:4]
	}
	return out.Recommendations, nil
}

func (r *Recommender) Predict(ctx context.Context, req domain.PredictionRequest) (domain.Prediction, error) {
	var out domain.Prediction
	if err := r.complete(ctx, buildPredictPrompt(req), &out); err != nil {
		return domain.Prediction{}, err
	}
	out.PredictedScore = clamp01(out.PredictedScore)
	out.Confidence = clamp01(out.Confidence)
	return out, nil
}

func (r *Recommender) AnalyzeProfile(ctx context.Context, req domain.ProfileRequest) (domain.LearnerProfile, error) {
	var out domain.LearnerProfile
	if err := r.complete(ctx, buildProfilePrompt(req), &out); err != nil {
		return domain.LearnerProfile{}, err
	}
	return out, nil
}

func (r *Recommender) complete(ctx context.Context, prompt string, out interface{}) error {
	resp, err := r.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return domain.Dependency("llm", fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return domain.Dependency("llm", fmt.Errorf("no choices returned"))
	}
	raw := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return domain.Dependency("llm", fmt.Errorf("parse response: %w (raw: %s)", err, raw))
	}
	return nil
}

const systemPrompt = "You are the tutoring assistant of a gamified learning platform. " +
	"Answer ONLY with a single JSON object in the exact shape requested."

func buildRecommendPrompt(req domain.RecommendationRequest) string {
	var sb strings.Builder
	sb.WriteString("Suggest up to 4 next learning items for a learner.\n\n")
	sb.WriteString(fmt.Sprintf("TOTAL POINTS: %d\nLEVEL: %d\n", req.TotalPoints, req.Level))
	if len(req.Preferences) > 0 {
		prefs, _ := json.Marshal(req.Preferences)
		sb.WriteString("PREFERENCES: " + string(prefs) + "\n")
	}
	sb.WriteString("\nLevels 1-2 are beginners, 3-5 intermediate, above 5 advanced.\n")
	sb.WriteString("Respond with:\n")
	sb.WriteString(`{"recommendations": [{"type": "quiz|lesson|challenge", "title": "...", "description": "...", "difficulty": "easy|medium|hard", "reason": "..."}]}`)
	sb.WriteString("\n")
	return sb.String()
}

func buildPredictPrompt(req domain.PredictionRequest) string {
	stats, _ := json.Marshal(req.UserStats)
	var sb strings.Builder
	sb.WriteString("Predict how well the learner will score on the quiz.\n\n")
	sb.WriteString("QUIZ: " + req.QuizID + "\n")
	sb.WriteString("LEARNER STATS: " + string(stats) + "\n\n")
	sb.WriteString("Respond with:\n")
	sb.WriteString(`{"predicted_score": <0..1>, "confidence": <0..1>, "suggestions": ["..."]}`)
	sb.WriteString("\n")
	return sb.String()
}

func buildProfilePrompt(req domain.ProfileRequest) string {
	history, _ := json.Marshal(req.QuizHistory)
	activity, _ := json.Marshal(req.ActivityData)
	var sb strings.Builder
	sb.WriteString("Describe the learner's profile from their history.\n\n")
	sb.WriteString("QUIZ HISTORY: " + string(history) + "\n")
	sb.WriteString("ACTIVITY: " + string(activity) + "\n\n")
	sb.WriteString("Respond with:\n")
	sb.WriteString(`{"learning_style": "visual|auditory|reading|kinesthetic", "difficulty_preference": "...", "engagement_level": "low|medium|high", "strengths": ["..."], "areas_for_improvement": ["..."], "recommended_pace": "slow|average|fast"}`)
	sb.WriteString("\n")
	return sb.String()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
