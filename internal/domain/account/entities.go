package account

import "time"

// User is a marketplace participant; Balance is the wallet the ledger moves.
type User struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"column:name;size:120;not null" json:"name"`
	Email         string    `gorm:"column:email;size:160;uniqueIndex:ux_users_email" json:"email"`
	Document      string    `gorm:"column:document;size:14;uniqueIndex:ux_users_document" json:"document"`
	Phone         string    `gorm:"column:phone;size:20" json:"phone"`
	MonthlyIncome float64   `gorm:"column:monthly_income;type:decimal(18,2);not null;default:0" json:"monthly_income"`
	FacialScore   float64   `gorm:"column:facial_score;type:decimal(5,2);not null;default:0" json:"facial_score"`
	Balance       float64   `gorm:"column:balance;type:decimal(18,2);not null;default:0" json:"balance"`
	CreatedAt     time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (User) TableName() string { return "users" }
