package telegram

import "strings"

// Chat replies.
const (
	ReplyAlreadyRegistered = "Ты уже зарегистрирован, но можешь воспользоваться командой /update чтобы перепройти регистрацию и обновить информацию о себе"
	ReplyNotRegistered     = "Ты ещё не зарегистрирован, но можешь это сделать с помощью команды /registration"
	ReplyReviewThanks      = "✍️ Спасибо за отзыв! Передал разработчикам"
	ReplyReviewTooShort    = "Слишком короткий отзыв. Помните, текст отзыва нужно написать в том же сообщении, что и команду /review"
	ReplyNoReviews         = "Неразрешённых отзывов нет"
	ReplyResolved          = "👌 Разрешено"
	ReplyAdminChanged      = "👌 Изменено"
	ReplyInvalidTelegramID = "Введён неверный Telegram_id пользователя. Проверить его можно здесь: @getmyid_bot"
	ReplyTargetNotFound    = "Для этой операции пользователю нужно сначала пройти регистрацию (/registration) в боте со своей учётной записи"
	ReplyPostingPublished  = "👌 Вакансия опубликована"
	ReplyAccessDenied      = "Эта команда доступна только администраторам"
)

// HelpText lists the commands available to the asking user.
func HelpText(isAdmin, isSuperuser bool) string {
	lines := []string{
		strong("Список комманд") + ":",
		strong("/help") + ": вывести список комманд бота",
		strong("/update") + ": перепройти регистрацию, чтобы обновить данные о себе",
		strong("/review") + ": отправить отзыв",
	}
	if isAdmin || isSuperuser {
		lines = append(lines,
			"",
			strong("/get_review")+": получить отзыв для разрешения",
			strong("/vacancy")+": опубликовать вакансию не с hh.ru (нужно заполнить ряд полей, каждое с новой строки)",
		)
	}
	if isSuperuser {
		lines = append(lines,
			"",
			strong("/enable_admin")+": назначить админа",
			strong("/disable_admin")+": лишить прав админа",
		)
	}
	return strings.Join(lines, "\n")
}

func strong(s string) string {
	return "<strong>" + s + "</strong>"
}
