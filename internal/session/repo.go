package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrSessionNotFound is returned when a session id does not exist under the
// given user. Write paths must surface it; the read path maps it to an empty
// session at the service level.
var ErrSessionNotFound = errors.New("session not found")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateSession(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) FindSession(ctx context.Context, userID uint64, sessionID string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListSessions returns the user's sessions. No ordering contract here;
// display ordering is the caller's concern.
func (r *Repo) ListSessions(ctx context.Context, userID uint64) ([]Session, error) {
	var out []Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages returns all messages of a session in insertion order.
func (r *Repo) ListMessages(ctx context.Context, userID uint64, sessionID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// AppendExchange inserts the user/assistant pair and bumps update_time in a
// single transaction. Either both messages land or neither does.
func (r *Repo) AppendExchange(ctx context.Context, userID uint64, sessionID string, userMsg, assistantMsg *Message) (*Session, error) {
	var sess Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND session_id = ?", userID, sessionID).
			First(&sess).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}

		userMsg.UserID = userID
		userMsg.SessionID = sessionID
		assistantMsg.UserID = userID
		assistantMsg.SessionID = sessionID

		if err := tx.Create(userMsg).Error; err != nil {
			return err
		}
		if err := tx.Create(assistantMsg).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&Session{}).
			Where("id = ?", sess.ID).
			Update("update_time", now).Error; err != nil {
			return err
		}
		sess.UpdateTime = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteSession removes the session row and its messages. Returns false when
// the session did not exist.
func (r *Repo) DeleteSession(ctx context.Context, userID uint64, sessionID string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND session_id = ?", userID, sessionID).
			Delete(&Session{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Where("user_id = ? AND session_id = ?", userID, sessionID).
			Delete(&Message{}).Error
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
