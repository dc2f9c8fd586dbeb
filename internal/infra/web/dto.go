package web

import (
	"time"

	"diaryshare/internal/domain/model"
	"diaryshare/internal/usecase"
)

// ----- requests -----

type createSetRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=2000"`
	StyleID     *string `json:"style_id" validate:"omitempty,max=64"`
}

type questionRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

type submitRequest struct {
	Answers map[string]string `json:"answers" validate:"max=200,dive,keys,max=64,endkeys,max=5000"`
}

// ----- responses -----

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type profileDTO struct {
	AccountID         string    `json:"account_id"`
	Username          string    `json:"username"`
	Plan              string    `json:"plan"`
	WeeklyAnswerCount int       `json:"weekly_answer_count"`
	AnswerLimit       int       `json:"answer_limit"`
	RemainingAnswers  int       `json:"remaining_answers"`
	SetLimit          int       `json:"set_limit"`
	SetCount          int       `json:"set_count"`
	WeeklyResetDate   string    `json:"weekly_reset_date"`
	NextResetAt       time.Time `json:"next_reset_at"`
}

func toProfileDTO(p *usecase.ProfileSummary) profileDTO {
	return profileDTO{
		AccountID:         p.AccountID,
		Username:          p.Username,
		Plan:              string(p.Plan),
		WeeklyAnswerCount: p.WeeklyAnswerCount,
		AnswerLimit:       p.AnswerLimit,
		RemainingAnswers:  p.RemainingAnswers,
		SetLimit:          p.SetLimit,
		SetCount:          p.SetCount,
		WeeklyResetDate:   p.WeeklyResetDate.Format("2006-01-02"),
		NextResetAt:       p.NextResetAt,
	}
}

type styleDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Template    string `json:"template"`
	IsPremium   bool   `json:"is_premium"`
}

func toStyleDTO(s *model.Style) styleDTO {
	return styleDTO{ID: s.ID, Name: s.Name, Description: s.Description, Template: s.TemplateName, IsPremium: s.IsPremium}
}

type questionDTO struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

func toQuestionDTO(q *model.Question) questionDTO {
	return questionDTO{ID: q.ID, Text: q.Text, Order: q.Order}
}

type questionSetDTO struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Slug        string        `json:"slug,omitempty"`
	ShareToken  string        `json:"share_token,omitempty"`
	StyleID     *string       `json:"style_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Questions   []questionDTO `json:"questions,omitempty"`
}

// toOwnerSetDTO includes the slug and share token; only owners see those.
func toOwnerSetDTO(qs *model.QuestionSet) questionSetDTO {
	d := toPublicSetDTO(qs)
	d.Slug = qs.Slug
	d.ShareToken = qs.ShareToken
	return d
}

func toPublicSetDTO(qs *model.QuestionSet) questionSetDTO {
	d := questionSetDTO{
		ID:          qs.ID,
		Title:       qs.Title,
		Description: qs.Description,
		StyleID:     qs.StyleID,
		CreatedAt:   qs.CreatedAt,
	}
	for _, q := range qs.Questions {
		d.Questions = append(d.Questions, toQuestionDTO(q))
	}
	return d
}

type answerDTO struct {
	QuestionID   *string `json:"question_id"`
	QuestionText string  `json:"question_text"`
	Answer       string  `json:"answer"`
}

type sessionDTO struct {
	ID            string      `json:"id"`
	QuestionSetID *string     `json:"question_set_id"`
	Respondent    string      `json:"respondent"`
	CreatedAt     time.Time   `json:"created_at"`
	Answers       []answerDTO `json:"answers"`
}

func toSessionDTO(s *model.AnswerSession) sessionDTO {
	d := sessionDTO{
		ID:            s.ID,
		QuestionSetID: s.QuestionSetID,
		Respondent:    s.RespondentName,
		CreatedAt:     s.CreatedAt,
		Answers:       make([]answerDTO, 0, len(s.Answers)),
	}
	if d.Respondent == "" {
		d.Respondent = "anonymous"
	}
	for _, a := range s.Answers {
		d.Answers = append(d.Answers, answerDTO{QuestionID: a.QuestionID, QuestionText: a.QuestionText, Answer: a.Text})
	}
	return d
}

func toSessionDTOs(ss []*model.AnswerSession) []sessionDTO {
	out := make([]sessionDTO, 0, len(ss))
	for _, s := range ss {
		out = append(out, toSessionDTO(s))
	}
	return out
}

type setResponsesDTO struct {
	QuestionSetID string       `json:"question_set_id"`
	Title         string       `json:"title"`
	Slug          string       `json:"slug"`
	Responses     []sessionDTO `json:"responses"`
}

type notificationDTO struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Message       string    `json:"message"`
	ActorID       *string   `json:"actor_id,omitempty"`
	QuestionSetID *string   `json:"question_set_id,omitempty"`
	SessionID     *string   `json:"session_id,omitempty"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}

type notificationPageDTO struct {
	Items      []notificationDTO `json:"items"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	Total      int               `json:"total"`
	Unread     int               `json:"unread"`
}

func toNotificationPageDTO(p *usecase.NotificationPage) notificationPageDTO {
	d := notificationPageDTO{
		Items:      make([]notificationDTO, 0, len(p.Items)),
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Total:      p.Total,
		Unread:     p.Unread,
	}
	for _, n := range p.Items {
		d.Items = append(d.Items, notificationDTO{
			ID:            n.ID,
			Type:          string(n.Type),
			Message:       n.Message,
			ActorID:       n.ActorID,
			QuestionSetID: n.QuestionSetID,
			SessionID:     n.SessionID,
			IsRead:        n.IsRead,
			CreatedAt:     n.CreatedAt,
		})
	}
	return d
}

type ownerStatDTO struct {
	AccountID     string `json:"account_id"`
	Username      string `json:"username"`
	ResponseCount int    `json:"response_count"`
}
