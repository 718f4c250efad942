package posting

import "errors"

var (
	ErrInvalidFormat       = errors.New("POSTING_FORMAT_INVALID")
	ErrDuplicateIdentifier = errors.New("POSTING_DUPLICATE")
	ErrEmptyClassification = errors.New("POSTING_UNCLASSIFIED")
)

// User-facing diagnostics, one per rejected field.
const (
	MsgIdentifierFormat    = "❌ Первой строкой должно идти id вакансии одним числом и ничего больше"
	MsgIdentifierTooLong   = "❌ Слишком длинный id вакансии"
	MsgIdentifierTaken     = "❌ Этот hh_id занят. Выберите другой (лучше короче 8 символов)"
	MsgEmployerCategory    = "❌ Неправильный тип работодателя: нужно \"Консалтинг\" или \"Инхаус\""
	MsgExperience          = "❌ Неправильно указан опыт работы: нужно \"0\" или \"1-3\""
	MsgSalary              = "❌ Неправильно указана зарплата: нужно в формате \"От 100\" или \"До 100\" или \"100-200\""
	MsgEmptyClassification = "❌ Пожалуйста, перепишите описание вакансии: я не могу найти отсылки ни к одной отрасли права"
	MsgMissingFields       = "❌ Не хватает полей: каждое из 7 полей вакансии нужно ввести на отдельной строке"
)

// ValidationError rejects a submission wholesale. Message is shown to the
// submitter verbatim.
type ValidationError struct {
	Field   string
	Message string
	kinds   []error
}

func newValidationError(field, message string, kinds ...error) *ValidationError {
	return &ValidationError{Field: field, Message: message, kinds: kinds}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match the sentinel kinds. A duplicate identifier is
// also a format error.
func (e *ValidationError) Unwrap() []error {
	return e.kinds
}

// Code returns the error code of the most specific kind.
func (e *ValidationError) Code() string {
	if len(e.kinds) == 0 {
		return ErrInvalidFormat.Error()
	}
	return e.kinds[len(e.kinds)-1].Error()
}

// AsValidationError unwraps err into a *ValidationError when it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
