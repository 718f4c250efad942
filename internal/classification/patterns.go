// Package classification maps free-form posting text to practice-area tags
// and employer descriptions to an employer category.
package classification

import (
	"regexp"
	"strings"

	"lawjobs-workers/internal/models"
)

// LibraryVersion identifies the current stem set. Bump it when stems change so
// stored tags can be re-derived.
const LibraryVersion = 3

// Matching is case-insensitive, multi-line and lets '.' cross newlines.
const patternFlags = "(?ims)"

var employerStems = []string{
	`Консалт`,
	`Юридическ.{1,3}фирм`,
	`Юридическ.{1,3}компан`,
	`Юридич.{1,3}услуг`,
	`Адвокат`,
}

var areaStems = map[models.PracticeArea][]string{
	models.AreaCorporate: {
		`Корпоративн.{0,4}прав`,
		`Устав`,
		`Реорганизац`,
		`Ликвидац`,
		`Учредительн.{0,4}документ`,
		`Собран.{0,5}участник`,
		`Решен.{0,4}.единственн.{0,4}участник`,
		`Корпоративн.{0,4}процедур`,
		`[\s,]+СД[\s,]+`,
		`[\s,]+ОСУ[\s,]+`,
		`Инвестиц`,
		`Финансирован`,
		`Корпоративн.{0,4}договор`,
		`Заем`,
		`Займ`,
		`Кредит`,
		`Лизинг`,
		`(?:Учрежден.{0,4}|Регистрац.{0,4})компан`,
		`Венчур`,
		`Совместн.{0,4}предприят`,
		`[\s,]+АО[\s,]+`,
		`Акци`,
		`ООО`,
		`Обществ.{0,6}ограниченн.{0,4}ответственност`,
		`Хозяйственн.{0,4}обществ`,
		`IPO`,
		`Преимущественн.{0,4}прав`,
		`Облигац`,
	},
	models.AreaIP: {
		`Интеллектуальн.{0,4}собственност`,
		`Авторск.{0,4}прав`,
		`Патент`,
		`Исключительн.{0,4}прав`,
		`Авторск.{0,5}заказ`,
		`Результат.{0,4}интеллектуальн.{0,4}деятельност`,
		`Лицензион`,
		`Служебн.{0,4}произведен`,
		`Программ.{0,4}для.?ЭВМ`,
	},
	models.AreaDataPrivacy: {
		`Персональн.{0,4}данн`,
	},
	models.AreaDisputeResolution: {
		`[\s,]+Иск`,
		`Отзыв`,
		`Претензи`,
		`Доказательств`,
		`Ходатайств`,
		`Жалоб`,
		`Возражен`,
		`Процессуальн.{0,4}документ`,
		`(?:Арбитражн.{0,4}|Третейск.{0,4})суд`,
		`Суд.{0,4}общ.{0,4}юрисдикц`,
		`Судебн.{0,4}приказ`,
		`Судебн.{0,4}разбирательств`,
		`Пристав`,
		`Делопроизводств`,
		`Разрешен.{0,4}спор`,
		`[\s,]+Упрощ[её]н`,
		`(?:Гражданск.{0,4}|Арбитражн.{0,4}|Административн.{0,4})процесс`,
		`Банкротств`,
		`Кредитор`,
		`Арбитражн.{0,4}управляющ`,
		`Конкурсн.{0,4}производств`,
		`Субсидиарн.{0,4}ответственност`,
		`Наблюден`,
		`Санаци`,
		`Финансов.{0,4}оздоровлен`,
		`Плат[её]жеспособн`,
		`Внешн.{0,4}управлен`,
		`Апелляционн`,
		`Кассационн`,
		`Надзорн`,
		`Оспариван`,
		`Недействительн`,
		`Ничтожн`,
		`Реституци`,
		`Взыскани`,
		`Арест`,
	},
	models.AreaCivil: {
		`Оказан.{0,4}услуг`,
		`Поставк`,
		`Подряд`,
		`Купл.{0,4}продаж`,
		`Протокол.{0,4}разноглас`,
		`Расторжен.{0,4}договор`,
		`Изменен.{0,4}договор`,
		`Уступк`,
		`Дополнительн.{0,4}соглашен`,
	},
	// Reserved positions. No stems yet, so these never match.
	models.AreaLabour:  nil,
	models.AreaBanking: nil,
}

var (
	areaPatterns    = compileAreas()
	employerPattern = compile(employerStems)
)

func compile(stems []string) *regexp.Regexp {
	if len(stems) == 0 {
		return nil
	}
	return regexp.MustCompile(patternFlags + "(?:" + strings.Join(stems, "|") + ")")
}

func compileAreas() map[models.PracticeArea]*regexp.Regexp {
	out := make(map[models.PracticeArea]*regexp.Regexp, len(areaStems))
	for area, stems := range areaStems {
		out[area] = compile(stems)
	}
	return out
}

// AreaPattern returns the compiled pattern for a practice area, or nil when
// the area has an empty rule set. Compiled patterns are immutable and safe for
// concurrent use.
func AreaPattern(area models.PracticeArea) *regexp.Regexp {
	return areaPatterns[area]
}

// EmployerPattern returns the consolidated consulting-signal pattern.
func EmployerPattern() *regexp.Regexp {
	return employerPattern
}

// Stems returns a copy of the raw stems for an area.
func Stems(area models.PracticeArea) []string {
	return append([]string(nil), areaStems[area]...)
}
