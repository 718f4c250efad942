package registration

import (
	"fmt"
	"strconv"

	"lawjobs-workers/internal/models"
)

// TagOptions is the order tags are offered in.
var TagOptions = []models.PracticeArea{
	models.AreaCorporate,
	models.AreaDisputeResolution,
	models.AreaCivil,
	models.AreaIP,
	models.AreaDataPrivacy,
}

const (
	CheckMark     = "✓"
	SaveLabel     = "💾 Сохранить"
	CompletedText = "👌 Я тебя запомнил"
)

// Option is one selectable answer of a prompt.
type Option struct {
	Label   string    `json:"label"`
	Kind    InputKind `json:"kind"`
	Value   string    `json:"value,omitempty"`
	Checked bool      `json:"checked,omitempty"`
}

// Prompt is the question asked in a state, with its answers. Rendering is
// left to the transport.
type Prompt struct {
	Text    string   `json:"text"`
	Options []Option `json:"options,omitempty"`
}

// Greeting is the text that opens a registration, or a re-registration when
// updating is true.
func Greeting(updating bool) string {
	if updating {
		return "Привет!\nЧтобы обновить информацию, тебе нужно ответить на те же 4 вопроса\nНачнём: 1️⃣ какой у тебя опыт работы?"
	}
	return "Привет!\nЧтобы зарегистрироваться, тебе нужно ответить на 4 вопроса\nНачнём: 1️⃣ какой у тебя опыт работы?"
}

// PromptFor returns the prompt shown while in state.
func PromptFor(state State, acc Accumulator, updating bool) Prompt {
	switch state {
	case StateAwaitingExperience:
		opts := make([]Option, 0, len(models.ExperienceBuckets))
		for _, e := range models.ExperienceBuckets {
			opts = append(opts, Option{Label: e.DisplayName(), Kind: InputSelect, Value: string(e)})
		}
		return Prompt{Text: Greeting(updating), Options: opts}

	case StateAwaitingSalary:
		opts := make([]Option, 0, len(SalaryOptions))
		for _, s := range SalaryOptions {
			opts = append(opts, Option{Label: "От " + groupThousands(s), Kind: InputSelect, Value: strconv.Itoa(s)})
		}
		return Prompt{Text: "2️⃣ На какую минимальную зп согласен?", Options: opts}

	case StateAwaitingTags:
		opts := make([]Option, 0, len(TagOptions)+1)
		for _, a := range TagOptions {
			opts = append(opts, checkable(a.DisplayName(), string(a), containsArea(acc.Tags, a)))
		}
		if len(acc.Tags) > 0 {
			opts = append(opts, Option{Label: SaveLabel, Kind: InputSave})
		}
		return Prompt{Text: "3️⃣ Выбери интересные тебе отрасли", Options: opts}

	case StateAwaitingEmployerTypes:
		opts := make([]Option, 0, len(models.EmployerCategories)+1)
		for _, c := range models.EmployerCategories {
			opts = append(opts, checkable(c.DisplayName(), string(c), containsCategory(acc.EmployerCategories, c)))
		}
		if len(acc.EmployerCategories) > 0 {
			opts = append(opts, Option{Label: SaveLabel, Kind: InputSave})
		}
		return Prompt{Text: "4️⃣ Выбери интересующих тебя работодателей", Options: opts}
	}
	return Prompt{Text: CompletedText}
}

func checkable(label, value string, checked bool) Option {
	if checked {
		label = CheckMark + label
	}
	return Option{Label: label, Kind: InputToggle, Value: value, Checked: checked}
}

func groupThousands(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%s %03d", groupThousands(n/1000), n%1000)
}

func containsArea(set []models.PracticeArea, a models.PracticeArea) bool {
	for _, x := range set {
		if x == a {
			return true
		}
	}
	return false
}

func containsCategory(set []models.EmployerCategory, c models.EmployerCategory) bool {
	for _, x := range set {
		if x == c {
			return true
		}
	}
	return false
}
