package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"diaryshare/internal/domain"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	MaxTitleLen    = 255
	maxSlugBaseLen = 240
	fallbackSlug   = "diary"
)

// Style is one entry of the visual style catalog.
type Style struct {
	ID           string
	Name         string
	Description  string
	TemplateName string
	IsPremium    bool
	CreatedAt    time.Time
}

// QuestionSet (a "diary") is an owned, shareable list of questions.
// ShareToken and Slug are assigned once at creation and never change.
type QuestionSet struct {
	ID          string
	OwnerID     string
	StyleID     *string
	Title       string
	Description string
	ShareToken  string
	Slug        string
	CreatedAt   time.Time

	Questions []*Question
}

func NewQuestionSet(ownerID, title, description string, styleID *string, now time.Time) (*QuestionSet, error) {
	title = strings.TrimSpace(title)
	if ownerID == "" || title == "" || utf8.RuneCountInString(title) > MaxTitleLen {
		return nil, domain.ErrInvalidArgument
	}
	if styleID != nil && *styleID == "" {
		styleID = nil
	}
	return &QuestionSet{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		StyleID:     styleID,
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
	}, nil
}

func (qs *QuestionSet) IsOwnedBy(accountID string) bool {
	return qs != nil && accountID != "" && qs.OwnerID == accountID
}

// Question is a single prompt within a set. Order is the stable ordering key.
type Question struct {
	ID            string
	QuestionSetID string
	Text          string
	Order         int
	CreatedAt     time.Time
}

func NewQuestion(setID, text string, order int, now time.Time) (*Question, error) {
	text = strings.TrimSpace(text)
	if setID == "" || text == "" || order < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Question{
		ID:            uuid.NewString(),
		QuestionSetID: setID,
		Text:          text,
		Order:         order,
		CreatedAt:     now,
	}, nil
}

// SortQuestions orders by Order, breaking ties by insertion time.
func SortQuestions(qs []*Question) {
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].Order != qs[j].Order {
			return qs[i].Order < qs[j].Order
		}
		return qs[i].CreatedAt.Before(qs[j].CreatedAt)
	})
}

// BaseSlug derives the URL-safe base for a title: transliterated, lowercased,
// with runs of non-alphanumerics collapsed to a single dash.
func BaseSlug(title string) string {
	s := slug.Make(title)
	if len(s) > maxSlugBaseLen {
		s = strings.TrimRight(s[:maxSlugBaseLen], "-")
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}

// SlugCandidate returns base for n == 0 and base-n otherwise.
func SlugCandidate(base string, n int) string {
	if n <= 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// NextSlugSuffix picks the suffix for base given the slugs already taken under it:
// 0 while base itself is free, otherwise one past the highest numeric suffix.
func NextSlugSuffix(base string, taken []string) int {
	baseTaken, highest := false, 0
	prefix := base + "-"
	for _, s := range taken {
		if s == base {
			baseTaken = true
			continue
		}
		rest, ok := strings.CutPrefix(s, prefix)
		if !ok || rest == "" || strings.TrimLeft(rest, "0123456789") != "" {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	if !baseTaken {
		return 0
	}
	return highest + 1
}

// NewShareToken returns an opaque random token backed by crypto/rand.
// It carries no information about the slug or title.
func NewShareToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("share token: %w", err)
	}
	return id.String(), nil
}
