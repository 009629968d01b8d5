// internal/domain/subscriber/entity.go
package subscriber

import (
	"regexp"
	"time"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Subscriber is a newsletter address. Unsubscribing keeps the row so a later
// subscribe reactivates it.
type Subscriber struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Subscribed   bool      `gorm:"default:true" json:"subscribed"`
	SubscribedAt time.Time `json:"subscribedAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName overrides the table name
func (Subscriber) TableName() string {
	return "subscribers"
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
