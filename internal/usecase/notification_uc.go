package usecase

import (
	"context"
	"errors"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
	"diaryshare/internal/infra/logging"

	"github.com/rs/zerolog"
)

// NotificationsPerPage is the page size of the notification inbox.
const NotificationsPerPage = 10

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationPage struct {
	Items      []*model.Notification
	Page       int
	TotalPages int
	Total      int
	Unread     int
}

type NotificationUseCase interface {
	// NotifyResponse emits the owner and respondent notifications for a committed session.
	// Both writes are attempted; the returned error joins whatever failed.
	NotifyResponse(ctx context.Context, set *model.QuestionSet, session *model.AnswerSession) error
	List(ctx context.Context, userID string, page int) (*NotificationPage, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type notificationUC struct {
	notes    repository.NotificationRepository
	accounts repository.AccountRepository
	texts    model.Phrasebook
	now      Clock
	log      *zerolog.Logger
}

// NewNotificationUseCase wires the inbox. texts may be nil for built-in English messages.
func NewNotificationUseCase(notes repository.NotificationRepository, accounts repository.AccountRepository, texts model.Phrasebook, clock Clock, logger *zerolog.Logger) *notificationUC {
	return &notificationUC{notes: notes, accounts: accounts, texts: texts, now: orSystemClock(clock), log: logger}
}

func (n *notificationUC) NotifyResponse(ctx context.Context, set *model.QuestionSet, session *model.AnswerSession) error {
	defer logging.TraceDuration(n.log, "NotificationUC.NotifyResponse")()

	if set == nil || session == nil || session.RespondentID == nil {
		return domain.ErrInvalidArgument
	}
	owner, err := n.accounts.FindByID(ctx, repository.NoTX, set.OwnerID)
	if err != nil {
		return err
	}
	respondent, err := n.accounts.FindByID(ctx, repository.NoTX, *session.RespondentID)
	if err != nil {
		return err
	}
	batch, err := model.ResponseNotifications(set, owner, respondent, session, n.now(), n.texts)
	if err != nil {
		return err
	}

	var errs []error
	for _, note := range batch {
		if err := n.notes.Save(ctx, repository.NoTX, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *notificationUC) List(ctx context.Context, userID string, page int) (*NotificationPage, error) {
	defer logging.TraceDuration(n.log, "NotificationUC.List")()

	total, err := n.notes.CountByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	pages := (total + NotificationsPerPage - 1) / NotificationsPerPage
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	items, err := n.notes.ListByUser(ctx, repository.NoTX, userID, (page-1)*NotificationsPerPage, NotificationsPerPage)
	if err != nil {
		return nil, err
	}
	unread, err := n.notes.CountUnread(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationPage{Items: items, Page: page, TotalPages: pages, Total: total, Unread: unread}, nil
}

func (n *notificationUC) UnreadCount(ctx context.Context, userID string) (int, error) {
	return n.notes.CountUnread(ctx, repository.NoTX, userID)
}

func (n *notificationUC) MarkRead(ctx context.Context, userID, notificationID string) error {
	defer logging.TraceDuration(n.log, "NotificationUC.MarkRead")()

	note, err := n.notes.FindByID(ctx, repository.NoTX, notificationID)
	if err != nil {
		return err
	}
	if note.UserID != userID {
		return domain.ErrForbidden
	}
	if note.IsRead {
		return nil
	}
	return n.notes.MarkRead(ctx, repository.NoTX, notificationID)
}

func (n *notificationUC) MarkAllRead(ctx context.Context, userID string) (int, error) {
	defer logging.TraceDuration(n.log, "NotificationUC.MarkAllRead")()
	return n.notes.MarkAllRead(ctx, repository.NoTX, userID)
}
