package domain

// UserStats is the learner context sent to the recommendation service.
type UserStats struct {
	TotalPoints int            `json:"totalPoints"`
	Level       int            `json:"level"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

type Recommendation struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Reason      string `json:"reason"`
}

type RecommendationRequest struct {
	UserID      string         `json:"userId"`
	TotalPoints int            `json:"totalPoints"`
	Level       int            `json:"level"`
	Preferences map[string]any `json:"preferences"`
}

type PredictionRequest struct {
	UserID    string         `json:"userId"`
	QuizID    string         `json:"quizId"`
	UserStats map[string]any `json:"userStats"`
}

type Prediction struct {
	PredictedScore float64  `json:"predicted_score"`
	Confidence     float64  `json:"confidence"`
	Suggestions    []string `json:"suggestions"`
}

type ProfileRequest struct {
	UserID       string           `json:"userId"`
	QuizHistory  []map[string]any `json:"quizHistory"`
	ActivityData []map[string]any `json:"activityData"`
}

type LearnerProfile struct {
	LearningStyle        string   `json:"learning_style"`
	DifficultyPreference string   `json:"difficulty_preference"`
	EngagementLevel      string   `json:"engagement_level"`
	Strengths            []string `json:"strengths"`
	AreasForImprovement  []string `json:"areas_for_improvement"`
	RecommendedPace      string   `json:"recommended_pace"`
}
