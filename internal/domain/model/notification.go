package model

import (
	"fmt"
	"time"

	"diaryshare/internal/domain"

	"github.com/google/uuid"
)

type NotificationType string

const (
	// NotificationAnsweredDiary acknowledges to the respondent that they answered a diary.
	NotificationAnsweredDiary NotificationType = "answered_diary"
	// NotificationReceivedResponse tells an owner somebody answered their diary.
	NotificationReceivedResponse NotificationType = "received_response"
	NotificationSystem           NotificationType = "system"
)

const maxMessageLen = 255

type Notification struct {
	ID            string
	UserID        string
	ActorID       *string
	Type          NotificationType
	Message       string
	QuestionSetID *string
	SessionID     *string
	IsRead        bool
	CreatedAt     time.Time
}

func NewNotification(userID string, actorID *string, typ NotificationType, message string, setID, sessionID *string, now time.Time) (*Notification, error) {
	if userID == "" || message == "" {
		return nil, domain.ErrInvalidArgument
	}
	if r := []rune(message); len(r) > maxMessageLen {
		message = string(r[:maxMessageLen])
	}
	return &Notification{
		ID:            uuid.NewString(),
		UserID:        userID,
		ActorID:       actorID,
		Type:          typ,
		Message:       message,
		QuestionSetID: setID,
		SessionID:     sessionID,
		CreatedAt:     now,
	}, nil
}

// Message keys for generated notifications. Phrasebook implementations receive
// the other party's username and the diary title, in that order.
const (
	MsgReceivedResponse = "notify.received_response"
	MsgAnsweredDiary    = "notify.answered_diary"
)

// Phrasebook renders user-facing text by key.
type Phrasebook interface {
	T(key string, args ...interface{}) string
}

type defaultPhrases struct{}

var defaultFormats = map[string]string{
	MsgReceivedResponse: "%s answered your diary '%s'.",
	MsgAnsweredDiary:    "You answered %s's diary '%s'.",
}

func (defaultPhrases) T(key string, args ...interface{}) string {
	if f, ok := defaultFormats[key]; ok {
		return fmt.Sprintf(f, args...)
	}
	return key
}

// ResponseNotifications builds the owner/respondent pair emitted after a submission.
// A nil phrasebook uses the built-in English text.
func ResponseNotifications(set *QuestionSet, owner, respondent *Account, session *AnswerSession, now time.Time, texts Phrasebook) ([]*Notification, error) {
	if texts == nil {
		texts = defaultPhrases{}
	}
	setID, sessID, actor := set.ID, session.ID, respondent.ID
	toOwner, err := NewNotification(owner.ID, &actor, NotificationReceivedResponse,
		texts.T(MsgReceivedResponse, respondent.Username, set.Title),
		&setID, &sessID, now)
	if err != nil {
		return nil, err
	}
	toRespondent, err := NewNotification(respondent.ID, nil, NotificationAnsweredDiary,
		texts.T(MsgAnsweredDiary, owner.Username, set.Title),
		&setID, &sessID, now)
	if err != nil {
		return nil, err
	}
	return []*Notification{toOwner, toRespondent}, nil
}
