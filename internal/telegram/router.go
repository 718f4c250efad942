package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lawjobs-workers/internal/access"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/models"
)

// Command names carried in the "command" variable of the update process.
const (
	CommandRegister      = "register"
	CommandSubmitPosting = "submit-posting"
	CommandSubmitReview  = "submit-review"
	CommandResolveReview = "resolve-review"
	CommandSetAdmin      = "set-admin"
)

// Register actions.
const (
	ActionStart  = "start"
	ActionUpdate = "update"
	ActionStep   = "step"
)

// Review actions.
const (
	ActionNext    = "next"
	ActionResolve = "resolve"
)

// Command is the variable set a chat update starts the update process with.
type Command struct {
	Command    string `json:"command"`
	Action     string `json:"action,omitempty"`
	ActorID    int64  `json:"actorId"`
	ChatID     int64  `json:"chatId"`
	MessageID  int    `json:"messageId,omitempty"`
	Username   string `json:"username,omitempty"`
	Text       string `json:"text,omitempty"`
	InputKind  string `json:"inputKind,omitempty"`
	InputValue string `json:"inputValue,omitempty"`
	TargetID   int64  `json:"targetId,omitempty"`
	Enable     bool   `json:"enable,omitempty"`
	ReviewID   string `json:"reviewId,omitempty"`
}

// Variables flattens the command for a process start.
func (c *Command) Variables() map[string]interface{} {
	vars := map[string]interface{}{
		"command": c.Command,
		"actorId": c.ActorID,
		"chatId":  c.ChatID,
	}
	set := func(key, value string) {
		if value != "" {
			vars[key] = value
		}
	}
	set("action", c.Action)
	set("username", c.Username)
	set("text", c.Text)
	set("inputKind", c.InputKind)
	set("inputValue", c.InputValue)
	set("reviewId", c.ReviewID)
	if c.MessageID != 0 {
		vars["messageId"] = c.MessageID
	}
	if c.Command == CommandSetAdmin {
		vars["targetId"] = c.TargetID
		vars["enable"] = c.Enable
	}
	return vars
}

type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error)
}

// PostingLookup returns (nil, nil) for unknown postings.
type PostingLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Posting, error)
}

type RoleChecker interface {
	IsSuperuser(actorID int64) bool
	Can(ctx context.Context, actorID int64, capability access.Capability) (bool, error)
}

// Replier is the part of the Notifier the router answers with directly.
type Replier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	EditPosting(ctx context.Context, chatID int64, messageID int, p *models.Posting, showDescription bool) error
}

// Router turns Telegram updates into update-process instances. Help and the
// description toggle are answered in place.
type Router struct {
	starter   ProcessStarter
	processID string
	postings  PostingLookup
	roles     RoleChecker
	replies   Replier
	logger    logger.Logger
}

func NewRouter(starter ProcessStarter, processID string, postings PostingLookup, roles RoleChecker, replies Replier, log logger.Logger) *Router {
	return &Router{
		starter:   starter,
		processID: processID,
		postings:  postings,
		roles:     roles,
		replies:   replies,
		logger:    log.WithFields(map[string]interface{}{"component": "telegram-router"}),
	}
}

// Route handles one update. It returns the started command, or nil when the
// update was answered locally or ignored.
func (r *Router) Route(ctx context.Context, update tgbotapi.Update) (*Command, error) {
	var (
		cmd *Command
		err error
	)
	switch {
	case update.CallbackQuery != nil:
		cmd, err = r.routeCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		cmd, err = r.routeMessage(ctx, update.Message)
	default:
		return nil, nil
	}
	if err != nil || cmd == nil {
		return nil, err
	}

	key, err := r.starter.StartProcess(ctx, r.processID, cmd.Variables())
	if err != nil {
		return nil, fmt.Errorf("start %s for %d: %w", cmd.Command, cmd.ActorID, err)
	}
	r.logger.Info("update routed", map[string]interface{}{
		"command":            cmd.Command,
		"action":             cmd.Action,
		"actorId":            cmd.ActorID,
		"processInstanceKey": key,
	})
	return cmd, nil
}

func (r *Router) routeMessage(ctx context.Context, msg *tgbotapi.Message) (*Command, error) {
	if msg.From == nil {
		return nil, nil
	}
	name, args := splitCommand(msg.Text)
	base := Command{
		ActorID:  msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: msg.From.UserName,
	}

	switch name {
	case "help":
		return nil, r.replyHelp(ctx, msg.From.ID, msg.Chat.ID)

	case "start", "registration":
		base.Command, base.Action = CommandRegister, ActionStart
	case "update":
		base.Command, base.Action = CommandRegister, ActionUpdate

	case "review":
		base.Command, base.Text = CommandSubmitReview, args

	case "get_review":
		base.Command, base.Action = CommandResolveReview, ActionNext

	case "vacancy":
		base.Command, base.Text = CommandSubmitPosting, msg.Text

	case "enable_admin", "disable_admin":
		target, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
		if err != nil || target <= 0 {
			return nil, r.replies.SendText(ctx, msg.Chat.ID, ReplyInvalidTelegramID)
		}
		base.Command, base.TargetID, base.Enable = CommandSetAdmin, target, name == "enable_admin"

	default:
		return nil, nil
	}
	return &base, nil
}

func (r *Router) routeCallback(ctx context.Context, q *tgbotapi.CallbackQuery) (*Command, error) {
	cb, ok := ParseCallback(q.Data)
	if !ok || q.From == nil {
		return nil, nil
	}
	base := Command{
		ActorID:  q.From.ID,
		ChatID:   q.From.ID,
		Username: q.From.UserName,
	}
	if q.Message != nil {
		base.ChatID = q.Message.Chat.ID
		base.MessageID = q.Message.MessageID
	}

	switch cb.Scope {
	case "desc":
		return nil, r.toggleDescription(ctx, base.ChatID, base.MessageID, cb)

	case "reg":
		base.Command, base.Action = CommandRegister, ActionStep
		base.InputKind, base.InputValue = cb.Action, cb.Value
		return &base, nil

	case "review":
		if cb.Action != ActionResolve {
			return nil, nil
		}
		base.Command, base.Action, base.ReviewID = CommandResolveReview, ActionResolve, cb.Value
		return &base, nil
	}
	return nil, nil
}

func (r *Router) toggleDescription(ctx context.Context, chatID int64, messageID int, cb Callback) error {
	id, err := strconv.ParseInt(cb.Value, 10, 64)
	if err != nil || messageID == 0 {
		return nil
	}
	p, err := r.postings.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load posting %d: %w", id, err)
	}
	if p == nil {
		r.logger.Warn("description toggle for unknown posting", map[string]interface{}{"postingId": id})
		return nil
	}
	return r.replies.EditPosting(ctx, chatID, messageID, p, cb.Action == "show")
}

func (r *Router) replyHelp(ctx context.Context, actorID, chatID int64) error {
	isAdmin, err := r.roles.Can(ctx, actorID, access.ManageReviews)
	if err != nil {
		r.logger.Warn("admin check failed, showing basic help", map[string]interface{}{
			"actorId": actorID,
			"error":   err,
		})
		isAdmin = false
	}
	return r.replies.SendText(ctx, chatID, HelpText(isAdmin, r.roles.IsSuperuser(actorID)))
}

// splitCommand returns the command name without the slash or bot suffix and
// the text after it. Non-command text yields an empty name.
func splitCommand(text string) (string, string) {
	text = strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	end := strings.IndexFunc(text, func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' || r == '\r' })
	head, rest := text, ""
	if end >= 0 {
		head, rest = text[:end], text[end:]
	}
	head = strings.TrimPrefix(head, "/")
	if at := strings.Index(head, "@"); at >= 0 {
		head = head[:at]
	}
	return strings.ToLower(head), strings.TrimSpace(rest)
}
