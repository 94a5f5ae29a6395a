// Package feedback validates and sends user feedback.
package feedback

import (
	"context"
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/hacknet"
	"github.com/hacknet/portal/internal/messages"
)

// MaxRunes is the longest message the form accepts.
const MaxRunes = 123

var Topics = []string{
	"Структура платформы",
	"Чемпионат",
	"Начисление баллов",
	"Турнирная таблица",
	"Другое",
}

var (
	ErrUnknownTopic = errors.New("unknown feedback topic")
	ErrBadMessage   = errors.New("feedback message must be 1 to 123 characters")
)

type API interface {
	SubmitFeedback(ctx context.Context, f hacknet.Feedback) (hacknet.Message, error)
}

// Truncate cuts s to MaxRunes characters, as the input box does.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxRunes {
		return s
	}
	return string([]rune(s)[:MaxRunes])
}

func CanSubmit(topic, message string) bool {
	return validate(topic, message) == nil
}

func validate(topic, message string) error {
	if !slices.Contains(Topics, topic) {
		return ErrUnknownTopic
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(message)); n == 0 || n > MaxRunes {
		return ErrBadMessage
	}
	return nil
}

// Result is what the form shows after a submit attempt.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Submit truncates and trims message, then sends it. Invalid input never
// reaches the backend.
func Submit(ctx context.Context, api API, topic, message string) (Result, error) {
	message = strings.TrimSpace(Truncate(message))
	if err := validate(topic, message); err != nil {
		return Result{Message: messages.Get("feedback.failed")}, err
	}
	if _, err := api.SubmitFeedback(ctx, hacknet.Feedback{Topic: topic, Message: message}); err != nil {
		return Result{Message: backend.Detail(err, messages.Get("feedback.failed"))}, err
	}
	return Result{OK: true, Message: messages.Get("feedback.sent")}, nil
}
