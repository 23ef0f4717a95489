package model

import "time"

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Nickname string `json:"nickname" binding:"required,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type DiaryCreateRequest struct {
	InputType string         `json:"input_type" binding:"required"`
	Content   string         `json:"content"`
	Keywords  map[string]any `json:"keywords"`
	// Persona overrides the user's stored default for this analysis only.
	Persona *int `json:"persona"`
}

// DiaryUpdateRequest carries partial-update semantics: nil means the caller
// did not supply the field and it stays untouched.
type DiaryUpdateRequest struct {
	InputType *string         `json:"input_type"`
	Content   *string         `json:"content"`
	Keywords  *map[string]any `json:"keywords"`
	Persona   *int            `json:"persona"`
}

type DiaryRead struct {
	Diary
	IsAnalyzed      bool              `json:"is_analyzed"`
	EmotionAnalysis *EmotionAnalysis  `json:"emotion_analysis,omitempty"`
	SolutionLogs    []SolutionLogRead `json:"solution_logs"`
}

type SolutionLogRead struct {
	LogID       int    `json:"log_id"`
	ActivityID  int    `json:"activity_id"`
	ActContent  string `json:"act_content"`
	IsSelected  bool   `json:"is_selected"`
	IsCompleted bool   `json:"is_completed"`
}

// AnalysisCallback is what the AI server posts back once a diary has
// been analyzed.
type AnalysisCallback struct {
	DiaryID         int              `json:"diary_id" binding:"required"`
	PrimaryEmotion  string           `json:"primary_emotion"`
	PrimaryScore    float64          `json:"primary_score"`
	MBICategory     string           `json:"mbi_category"`
	EmotionProbs    map[string]any   `json:"emotion_probs"`
	AIMessage       string           `json:"ai_message"`
	Recommendations []Recommendation `json:"recommendations"`
}

type Recommendation struct {
	ActivityID int    `json:"activity_id"`
	AIMessage  string `json:"ai_message,omitempty"`
}

type SolutionUpdateRequest struct {
	IsSelected  *bool `json:"is_selected"`
	IsCompleted *bool `json:"is_completed"`
}

type UserInfoUpdateRequest struct {
	Nickname       *string `json:"nickname"`
	Persona        *int    `json:"persona"`
	IsPushEnabled  *bool   `json:"is_push_enabled"`
	FCMToken       *string `json:"fcm_token"`
	IsDailyAlarmOn *bool   `json:"is_daily_alarm_on"`
	DailyAlarmTime *string `json:"daily_alarm_time"`
	DailyAlarmDays *[]int  `json:"daily_alarm_days"`
}

type MedalInfo struct {
	AchieveID    int       `json:"achieve_id"`
	MedalName    string    `json:"medal_name"`
	MedalExplain string    `json:"medal_explain"`
	EarnedAt     time.Time `json:"earned_at"`
	IsRead       bool      `json:"is_read"`
}

type UserProfileResponse struct {
	User
	Achievements    []MedalInfo `json:"achievements"`
	HasUnreadMedals bool        `json:"has_unread_medals"`
}

type FeedbackRequest struct {
	AIMessageRating   int `json:"ai_message_rating" binding:"required,min=1,max=5"`
	MBICategoryRating int `json:"mbi_category_rating" binding:"required,min=1,max=5"`
}
