package domain

// OutcomeKind описывает результат обработки одной записи.
type OutcomeKind int

const (
	// OutcomeAccepted - запись сохранена.
	OutcomeAccepted OutcomeKind = iota
	// OutcomeSkipped - запись пропущена, загрузка продолжается.
	OutcomeSkipped
	// OutcomeFatal - загрузка прерывается, транзакция откатывается.
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome - результат операции над записью фикстуры.
// Для Skipped в Err лежит причина пропуска, для Fatal - ошибка запуска.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// Accepted возвращает успешный результат.
func Accepted() Outcome { return Outcome{Kind: OutcomeAccepted} }

// Skipped возвращает результат пропуска с причиной.
func Skipped(reason error) Outcome { return Outcome{Kind: OutcomeSkipped, Err: reason} }

// Fatal возвращает результат, прерывающий запуск.
func Fatal(err error) Outcome { return Outcome{Kind: OutcomeFatal, Err: err} }
