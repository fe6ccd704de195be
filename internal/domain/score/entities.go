package score

import (
	"time"

	"gorm.io/datatypes"
)

const (
	Min = 0
	Max = 1000
)

type CreditScore struct {
	ID                 uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID             uint64         `gorm:"column:user_id;uniqueIndex:ux_credit_scores_user;not null" json:"user_id"`
	Score              int            `gorm:"column:score;not null" json:"score"`
	ModelScore         int            `gorm:"column:model_score;not null" json:"model_score"`
	BureauScore        int            `gorm:"column:bureau_score;not null" json:"bureau_score"`
	DefaultProbability float64        `gorm:"column:default_probability;not null" json:"default_probability"`
	BureauWeight       float64        `gorm:"column:bureau_weight;not null" json:"bureau_weight"`
	Analysis           datatypes.JSON `gorm:"column:analysis" json:"analysis"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (CreditScore) TableName() string { return "credit_scores" }
