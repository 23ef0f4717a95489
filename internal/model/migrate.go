package model

import "gorm.io/gorm"

// Migrate creates/updates the schema. Seed data (medals, push messages,
// the activity catalog) lives in cmd/seed.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Attendance{},
		&Diary{},
		&EmotionAnalysis{},
		&SolutionLog{},
		&Activity{},
		&Medal{},
		&Achievement{},
		&PushMessage{},
		&NotificationLog{},
		&DiaryFeedback{},
	)
}
