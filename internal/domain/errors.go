package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUsersFixtureRequired возвращается, если запуск начат без фикстуры пользователей.
	ErrUsersFixtureRequired = errors.New("users fixture is required")

	// ErrRunInProgress возвращается, если другой запуск загрузки уже держит блокировку.
	ErrRunInProgress = errors.New("another seeding run is in progress")
)

// ValidationError - поле записи превышает допустимую длину. Запись пропускается.
type ValidationError struct {
	Record string
	Field  string
	Limit  int
	Actual int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s of %q is %d long, limit %d", e.Field, e.Record, e.Actual, e.Limit)
}

// ReferenceError - ссылка на другую сущность не разрешилась.
type ReferenceError struct {
	Entity string
	Key    string
	From   string
}

func (e *ReferenceError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("reference: %s %q not found", e.Entity, e.Key)
	}
	return fmt.Sprintf("reference: %s %q not found (%s)", e.Entity, e.Key, e.From)
}

// CapacityError - пространство персональных номеров исчерпано.
type CapacityError struct {
	Requested int
	Capacity  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity: %d personal numbers requested, only %d available", e.Requested, e.Capacity)
}

// ConfigurationError - обязательное значение конфигурации отсутствует или некорректно.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %s", e.Key, e.Reason)
}

// DatabaseError - ошибка хранилища. Исходная ошибка доступна через errors.Unwrap.
type DatabaseError struct {
	Op         string
	Code       string
	Constraint string
	Err        error
}

func (e *DatabaseError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("database: %s: %v (constraint %s)", e.Op, e.Err, e.Constraint)
	}
	return fmt.Sprintf("database: %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }
