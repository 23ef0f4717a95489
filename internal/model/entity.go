package model

import (
	"time"

	"gorm.io/datatypes"
)

// Burnout (MBI) categories produced by the AI server. NONE is the
// insufficient-data sentinel forced when a user has fewer than three diaries.
const (
	MBIExhaustion        = "EE"
	MBIDepersonalization = "DP"
	MBILowAccomplishment = "PA_LOW"
	MBINormal            = "NORMAL"
	MBINone              = "NONE"
)

// BurnoutStates are the categories that count as burnout for the
// recovery-medal transition check.
var BurnoutStates = []string{MBIExhaustion, MBIDepersonalization, MBILowAccomplishment}

// MedalRecovery is the medal awarded on a burnout -> NORMAL transition.
const MedalRecovery = "RECOVERY_LIGHT"

// DateLayout is the civil-date format used for attendance and alarm math.
const DateLayout = "2006-01-02"

// CivilDate truncates t to its calendar day, normalized to midnight UTC.
// Drivers hand DATE columns back as time.Time in varying locations;
// normalizing both sides keeps day comparisons exact.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClockLayout is the minute-granularity format used by the daily alarm.
const ClockLayout = "15:04"

type User struct {
	ID         int    `gorm:"primaryKey" json:"user_id"`
	Email      string `gorm:"size:100;uniqueIndex" json:"email"`
	Password   string `gorm:"size:255" json:"-"`
	Nickname   string `gorm:"size:20" json:"nickname"`
	Provider   string `gorm:"size:20;default:LOCAL" json:"provider"`
	ProviderID string `gorm:"size:255" json:"-"`

	CreatedAt     time.Time  `json:"created_at"`
	LastAttDate   *time.Time `gorm:"type:date" json:"last_att_date,omitempty"`
	CurrentStreak int        `gorm:"default:0" json:"current_streak"`

	FCMToken      string `gorm:"size:512" json:"-"`
	IsPushEnabled bool   `gorm:"default:true" json:"is_push_enabled"`

	// Persona selects the AI response style (1..5); nil means not chosen.
	Persona *int `json:"persona,omitempty"`

	IsDailyAlarmOn bool                     `gorm:"default:false" json:"is_daily_alarm_on"`
	DailyAlarmTime string                   `gorm:"size:5" json:"daily_alarm_time,omitempty"`
	DailyAlarmDays datatypes.JSONSlice[int] `json:"daily_alarm_days,omitempty"`
}

type Attendance struct {
	ID        int       `gorm:"primaryKey" json:"att_id"`
	UserID    int       `gorm:"index;uniqueIndex:uk_user_att_date" json:"user_id"`
	AttDate   time.Time `gorm:"type:date;uniqueIndex:uk_user_att_date" json:"att_date"`
	CreatedAt time.Time `json:"created_at"`
}

type Diary struct {
	ID        int               `gorm:"primaryKey" json:"diary_id"`
	UserID    int               `gorm:"index" json:"user_id"`
	Content   string            `gorm:"type:text" json:"content,omitempty"`
	Keywords  datatypes.JSONMap `json:"keywords,omitempty"`
	InputType string            `gorm:"size:10" json:"input_type"`
	ImageURL  string            `gorm:"size:512" json:"image_url,omitempty"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}

type EmotionAnalysis struct {
	ID             int               `gorm:"primaryKey" json:"analysis_id"`
	DiaryID        int               `gorm:"index" json:"diary_id"`
	EmotionProbs   datatypes.JSONMap `json:"emotion_probs"`
	PrimaryEmotion string            `gorm:"size:20" json:"primary_emotion"`
	PrimaryScore   float64           `json:"primary_score"`
	MBICategory    string            `gorm:"size:30;default:NONE" json:"mbi_category"`
	AIMessage      string            `gorm:"type:text" json:"ai_message,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

type SolutionLog struct {
	ID          int       `gorm:"primaryKey" json:"log_id"`
	DiaryID     int       `gorm:"index" json:"diary_id"`
	ActivityID  int       `json:"activity_id"`
	IsSelected  bool      `gorm:"default:false" json:"is_selected"`
	IsCompleted bool      `gorm:"default:false" json:"is_completed"`
	AIMessage   string    `gorm:"type:text" json:"ai_message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Activity struct {
	ID          int    `gorm:"primaryKey" json:"activity_id"`
	ActContent  string `gorm:"size:255;uniqueIndex" json:"act_content"`
	ActCategory string `gorm:"size:20" json:"act_category"`
	IsActive    bool   `gorm:"default:false" json:"is_active"`
	IsOutdoor   bool   `gorm:"default:false" json:"is_outdoor"`
	IsSocial    bool   `gorm:"default:false" json:"is_social"`
	IsEnabled   bool   `gorm:"default:false" json:"is_enabled"`
	Source      string `gorm:"size:20;default:SYSTEM" json:"source"`
}

type Medal struct {
	ID           int    `gorm:"primaryKey" json:"medal_id"`
	MedalCode    string `gorm:"size:50;uniqueIndex" json:"medal_code"`
	MedalName    string `gorm:"size:50" json:"medal_name"`
	MedalExplain string `gorm:"size:255" json:"medal_explain"`
}

type Achievement struct {
	ID       int       `gorm:"primaryKey" json:"achieve_id"`
	UserID   int       `gorm:"uniqueIndex:uk_user_medal" json:"user_id"`
	MedalID  int       `gorm:"uniqueIndex:uk_user_medal" json:"medal_id"`
	EarnedAt time.Time `json:"earned_at"`
	IsRead   bool      `gorm:"default:false" json:"is_read"`
}

type PushMessage struct {
	ID         int       `gorm:"primaryKey" json:"msg_id"`
	MsgContent string    `gorm:"size:255" json:"msg_content"`
	Category   string    `gorm:"size:50;index" json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}

type NotificationLog struct {
	ID        int       `gorm:"primaryKey" json:"log_id"`
	UserID    int       `gorm:"index" json:"user_id"`
	AlertType string    `gorm:"size:50" json:"alert_type"`
	Message   string    `gorm:"type:text" json:"message"`
	SentAt    time.Time `json:"sent_at"`
	MsgID     *int      `json:"msg_id,omitempty"`
}

type DiaryFeedback struct {
	ID                int       `gorm:"primaryKey" json:"feedback_id"`
	DiaryID           int       `gorm:"uniqueIndex" json:"diary_id"`
	AIMessageRating   int       `json:"ai_message_rating"`
	MBICategoryRating int       `json:"mbi_category_rating"`
	IsSentToAI        bool      `gorm:"default:false" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}

func (User) TableName() string            { return "users" }
func (Attendance) TableName() string      { return "attendance" }
func (Diary) TableName() string           { return "diaries" }
func (EmotionAnalysis) TableName() string { return "emotion_analysis" }
func (SolutionLog) TableName() string     { return "solution_logs" }
func (Activity) TableName() string        { return "activities" }
func (Medal) TableName() string           { return "medals" }
func (Achievement) TableName() string     { return "achievements" }
func (PushMessage) TableName() string     { return "push_messages" }
func (NotificationLog) TableName() string { return "notification_logs" }
func (DiaryFeedback) TableName() string   { return "diary_feedbacks" }
