package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role is the closed set of message roles. Anything else is rejected at the
// JSON boundary.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v := Role(s)
	if !v.Valid() {
		return fmt.Errorf("invalid message role %q", s)
	}
	*r = v
	return nil
}

// Session is one conversation thread owned by a user. Messages are append
// only; the whole session is removed on delete.
type Session struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID  string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"session_id"`
	UserID     uint64    `gorm:"index;not null" json:"-"`
	Name       string    `gorm:"type:varchar(128);not null" json:"name"`
	UpdateTime time.Time `json:"update_time"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Session) TableName() string { return "weather_sessions" }

type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string    `gorm:"type:varchar(36);not null;index:idx_wx_msg_user_session,priority:2" json:"-"`
	UserID    uint64    `gorm:"not null;index:idx_wx_msg_user_session,priority:1" json:"-"`
	Role      Role      `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Location  string    `gorm:"type:varchar(128)" json:"location"`
	CreatedAt time.Time `json:"timestamp"`
}

func (Message) TableName() string { return "weather_messages" }
