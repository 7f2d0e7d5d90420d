package domain

const (
	// PersonalNumberMin - наименьший персональный номер.
	PersonalNumberMin = 1000
	// PersonalNumberMax - граница диапазона номеров, не включается.
	PersonalNumberMax = 10000
	// PersonalNumberCapacity - количество доступных четырёхзначных номеров.
	PersonalNumberCapacity = PersonalNumberMax - PersonalNumberMin
)

// Limits описывает ограничения на длины полей и размер групп.
type Limits struct {
	MaxUsernameLength   int
	MaxPasswordLength   int
	MaxExtraDataLength  int
	MaxGroupChatMembers int
}

// Settings - неизменяемые параметры запуска, передаются загрузчикам по значению.
type Settings struct {
	Pepper string
	Limits Limits
}

// Validate проверяет, что параметры пригодны для запуска.
func (s Settings) Validate() error {
	if s.Pepper == "" {
		return &ConfigurationError{Key: "DATABASE_PASSWORD_PEPPER", Reason: "is required"}
	}
	checks := []struct {
		key   string
		value int
	}{
		{"MAX_USERNAME_LENGTH", s.Limits.MaxUsernameLength},
		{"MAX_PASSWORD_LENGTH", s.Limits.MaxPasswordLength},
		{"MAX_EXTRA_DATA_LENGTH", s.Limits.MaxExtraDataLength},
		{"MAX_GROUP_CHAT_MEMBERS", s.Limits.MaxGroupChatMembers},
	}
	for _, c := range checks {
		if c.value <= 0 {
			return &ConfigurationError{Key: c.key, Reason: "must be positive"}
		}
	}
	return nil
}
