package posting

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"lawjobs-workers/internal/models"
)

// MaxDescriptionLength caps the description shown in a chat message.
const MaxDescriptionLength = 3900

const adminBadge = "👑 Вакансия не из HH 👑\n"

func strong(s string) string {
	return "<strong>" + s + "</strong>"
}

// RenderMessage builds the HTML message text for a posting.
func RenderMessage(p *models.Posting, showDescription bool) string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.DisplayName())
	}

	lines := []string{
		fmt.Sprintf("%s | %s", strong(p.Title), p.EmployerName),
		fmt.Sprintf("%s: %s", strong("Отрасли"), strings.Join(names, ", ")),
	}

	if line := salaryLine(p.Salary); line != "" {
		lines = append(lines, line)
	}

	if showDescription {
		lines = append(lines, truncateDescription(p.Description))
	}

	lines = append(lines, fmt.Sprintf("\nID: %d", p.ID))

	if p.FromAdmin {
		lines = append([]string{adminBadge}, lines...)
	}
	return strings.Join(lines, "\n")
}

func salaryLine(s *models.Salary) string {
	if s == nil {
		return ""
	}
	from := s.From != nil && *s.From != 0
	to := s.To != nil && *s.To != 0
	switch {
	case from && to:
		return fmt.Sprintf("💵 %d - %d", *s.From, *s.To)
	case from:
		return fmt.Sprintf("💵 От %d", *s.From)
	case to:
		return fmt.Sprintf("💵 До %d", *s.To)
	}
	return ""
}

func truncateDescription(d string) string {
	if utf8.RuneCountInString(d) <= MaxDescriptionLength {
		return d
	}
	runes := []rune(d)
	return string(runes[:MaxDescriptionLength+1]) + " ..."
}

// SubmissionHelp lists the expected submission fields. It follows the
// diagnostic on every rejected submission.
func SubmissionHelp() string {
	return strings.Join([]string{
		"Нужно ввести следующую информацию " + strong("строго каждое поле на отдельной строке"),
		"• " + strong("id") + ": id вакансии одним числом длиной до 10 цифр. Вводить на отдельной строке после команды /vacancy",
		"• " + strong("Название позиции") + ": кого вы ищете. Например \"Младший юрист в практику корпоративного права\"",
		"• " + strong("Название работодателя"),
		"• " + strong("Тип работодателя") + ": \"консалтинг\" или \"инхаус\"",
		"• " + strong("Опыт") + ": сколько лет опыта работы нужно для этой вакансии: \"0\" (без опыта) или \"1-3\" (1-3 года опыта)",
		"• " + strong("Зарплата") + ": зарплата/зарплатная вилка в формате \"число - число\", \"от число\" или \"до число\"",
		"• " + strong("Описание вакансии") + " длиной не более 3900 символов.",
	}, "\n")
}

// RejectionMessage is the reply sent to a submitter whose posting was
// rejected.
func RejectionMessage(err error) string {
	msg := err.Error()
	if ve, ok := AsValidationError(err); ok {
		msg = ve.Message
	}
	return msg + "\n\n" + SubmissionHelp()
}
