// Package telegram delivers postings and prompts to chats and turns incoming
// updates into workflow commands.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/models"
	"lawjobs-workers/internal/posting"
	"lawjobs-workers/internal/registration"
)

var ErrSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

const (
	ShowDescriptionLabel = "Показать описание"
	HideDescriptionLabel = "Скрыть описание"
	MoreLabel            = "Подробнее"
)

// MessageSender is the part of *tgbotapi.BotAPI the notifier uses.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	sender  MessageSender
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewNotifier paces outgoing messages to ratePerSec. A non-positive rate
// disables pacing.
func NewNotifier(sender MessageSender, ratePerSec float64, burst int, log logger.Logger) *Notifier {
	n := &Notifier{sender: sender, logger: log}
	if ratePerSec > 0 {
		if burst <= 0 {
			burst = 1
		}
		n.limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
	return n
}

func (n *Notifier) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	return n.sender.Send(c)
}

// SendPosting delivers a posting in HTML and retries once in Markdown when
// Telegram rejects the markup.
func (n *Notifier) SendPosting(ctx context.Context, chatID int64, p *models.Posting) error {
	text := posting.RenderMessage(p, false)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = PostingKeyboard(p, false)

	if _, err := n.send(ctx, msg); err != nil {
		n.logger.Warn("html send rejected, retrying as markdown", map[string]interface{}{
			"chatId":    chatID,
			"postingId": p.ID,
			"error":     err,
		})
		msg.Text = HTMLToMarkdown(text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := n.send(ctx, msg); err != nil {
			return fmt.Errorf("%w: posting %d to %d: %v", ErrSendFailed, p.ID, chatID, err)
		}
	}
	return nil
}

// EditPosting re-renders a delivered posting with or without its description.
func (n *Notifier) EditPosting(ctx context.Context, chatID int64, messageID int, p *models.Posting, showDescription bool) error {
	text := posting.RenderMessage(p, showDescription)
	keyboard := PostingKeyboard(p, showDescription)

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := n.send(ctx, edit); err != nil {
		edit.Text = HTMLToMarkdown(text)
		edit.ParseMode = tgbotapi.ModeMarkdown
		if _, err := n.send(ctx, edit); err != nil {
			return fmt.Errorf("%w: edit posting %d: %v", ErrSendFailed, p.ID, err)
		}
	}
	return nil
}

// SendText sends an HTML message without buttons.
func (n *Notifier) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.send(ctx, msg); err != nil {
		return fmt.Errorf("%w: text to %d: %v", ErrSendFailed, chatID, err)
	}
	return nil
}

// SendPrompt shows a registration prompt. A non-zero messageID edits the
// previous prompt in place.
func (n *Notifier) SendPrompt(ctx context.Context, chatID int64, messageID int, prompt registration.Prompt) error {
	var c tgbotapi.Chattable
	keyboard, hasKeyboard := PromptKeyboard(prompt)

	switch {
	case messageID != 0 && hasKeyboard:
		c = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, prompt.Text, keyboard)
	case messageID != 0:
		c = tgbotapi.NewEditMessageText(chatID, messageID, prompt.Text)
	default:
		msg := tgbotapi.NewMessage(chatID, prompt.Text)
		if hasKeyboard {
			msg.ReplyMarkup = keyboard
		}
		c = msg
	}

	if _, err := n.send(ctx, c); err != nil {
		return fmt.Errorf("%w: prompt to %d: %v", ErrSendFailed, chatID, err)
	}
	return nil
}

// SendReview shows a review to an admin with a resolve button.
func (n *Notifier) SendReview(ctx context.Context, chatID int64, review *models.Review) error {
	text := fmt.Sprintf("<strong>Отзыв</strong>:\n%s\n\nID отзыва: %s", review.Description, review.ID)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Разрешить", ReviewResolveData(review.ID)),
		),
	)
	if _, err := n.send(ctx, msg); err != nil {
		return fmt.Errorf("%w: review to %d: %v", ErrSendFailed, chatID, err)
	}
	return nil
}

// MarkResolved replaces a review message once it has been handled.
func (n *Notifier) MarkResolved(ctx context.Context, chatID int64, messageID int) error {
	if _, err := n.send(ctx, tgbotapi.NewEditMessageText(chatID, messageID, ReplyResolved)); err != nil {
		return fmt.Errorf("%w: resolve mark: %v", ErrSendFailed, err)
	}
	return nil
}

// PostingKeyboard toggles the description and links to the source page.
func PostingKeyboard(p *models.Posting, showDescription bool) tgbotapi.InlineKeyboardMarkup {
	toggle := tgbotapi.NewInlineKeyboardButtonData(ShowDescriptionLabel, DescriptionData(true, p.ID))
	if showDescription {
		toggle = tgbotapi.NewInlineKeyboardButtonData(HideDescriptionLabel, DescriptionData(false, p.ID))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(toggle)}
	if p.URL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(MoreLabel, p.URL)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// PromptKeyboard lays out one option per row.
func PromptKeyboard(prompt registration.Prompt) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(prompt.Options) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(prompt.Options))
	for _, opt := range prompt.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.Label, RegistrationData(opt.Kind, opt.Value)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

var markdownReplacer = strings.NewReplacer(
	"<strong>", "*", "</strong>", "*",
	"<b>", "*", "</b>", "*",
	"<em>", "_", "</em>", "_",
	"<i>", "_", "</i>", "_",
)

// HTMLToMarkdown rewrites the few tags RenderMessage emits.
func HTMLToMarkdown(s string) string {
	return markdownReplacer.Replace(s)
}

// Callback data is "<scope>|<action>|<value>" and fits the 64 byte limit.
const callbackSep = "|"

func DescriptionData(show bool, postingID int64) string {
	action := "hide"
	if show {
		action = "show"
	}
	return strings.Join([]string{"desc", action, strconv.FormatInt(postingID, 10)}, callbackSep)
}

func RegistrationData(kind registration.InputKind, value string) string {
	return strings.Join([]string{"reg", string(kind), value}, callbackSep)
}

func ReviewResolveData(reviewID string) string {
	return strings.Join([]string{"review", "resolve", reviewID}, callbackSep)
}

// Callback is parsed callback data.
type Callback struct {
	Scope  string
	Action string
	Value  string
}

func ParseCallback(data string) (Callback, bool) {
	parts := strings.SplitN(data, callbackSep, 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Callback{}, false
	}
	return Callback{Scope: parts[0], Action: parts[1], Value: parts[2]}, true
}
