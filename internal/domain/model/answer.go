package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AnswerSession is one submission event. Respondent and question set references
// become nil when the referenced rows are removed.
type AnswerSession struct {
	ID            string
	RespondentID  *string
	QuestionSetID *string
	CreatedAt     time.Time

	// Populated on read.
	RespondentName string
	Answers        []*Answer
}

func NewAnswerSession(respondentID, setID string, now time.Time) *AnswerSession {
	r, s := respondentID, setID
	return &AnswerSession{
		ID:            uuid.NewString(),
		RespondentID:  &r,
		QuestionSetID: &s,
		CreatedAt:     now,
	}
}

// Answer holds the respondent's text and a frozen copy of the question text.
// QuestionID becomes nil if the question is later deleted; QuestionText never changes.
type Answer struct {
	ID           string
	SessionID    string
	QuestionID   *string
	QuestionText string
	Text         string

	// Populated on read from the live question, when it still exists.
	QuestionOrder *int
}

// BuildAnswers snapshots one Answer per question that received non-blank text.
// Questions are visited in their display order; unknown keys in supplied are ignored.
func BuildAnswers(sessionID string, questions []*Question, supplied map[string]string) []*Answer {
	ordered := make([]*Question, len(questions))
	copy(ordered, questions)
	SortQuestions(ordered)

	out := make([]*Answer, 0, len(ordered))
	for _, q := range ordered {
		text := strings.TrimSpace(supplied[q.ID])
		if text == "" {
			continue
		}
		qid := q.ID
		order := q.Order
		out = append(out, &Answer{
			ID:            uuid.NewString(),
			SessionID:     sessionID,
			QuestionID:    &qid,
			QuestionText:  q.Text,
			Text:          text,
			QuestionOrder: &order,
		})
	}
	return out
}

// ResolvedPair is one (question, answer) line handed to document renderers.
type ResolvedPair struct {
	Question string
	Answer   string
}

// ResolvedResponse is everything an export renderer needs for a single session.
type ResolvedResponse struct {
	SessionID   string
	SetTitle    string
	StyleName   string
	Template    string
	Respondent  string
	SubmittedAt time.Time
	Pairs       []ResolvedPair
}
