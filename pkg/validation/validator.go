package validation

import (
	"fmt"
	"regexp"
	"time"
)

// timePattern формат времени HH:MM, проверяется на границе запроса
var timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// Validator предоставляет общие функции валидации
type Validator struct{}

// NewValidator создает новый Validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateRequiredFields проверяет, что все обязательные поля непустые.
// Ключ карты — значение поля, значение — человекочитаемое имя для сообщения об ошибке.
func (v *Validator) ValidateRequiredFields(fields map[string]string) error {
	for fieldName, value := range fields {
		if value == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}
	return nil
}

// ValidateTimeOfDay проверяет строку времени в 24-часовом формате HH:MM
func (v *Validator) ValidateTimeOfDay(value string) error {
	if value == "" {
		return fmt.Errorf("time is required")
	}
	if !timePattern.MatchString(value) {
		return fmt.Errorf("time must match HH:MM format, got: %s", value)
	}
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("time must be a valid 24-hour time, got: %s", value)
	}
	return nil
}

// ValidateDate проверяет календарную дату в формате YYYY-MM-DD
func (v *Validator) ValidateDate(value string) error {
	if value == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("date must match YYYY-MM-DD format, got: %s", value)
	}
	return nil
}

// ValidatePassengerCount проверяет количество пассажиров в билете
func (v *Validator) ValidatePassengerCount(count int) error {
	if count < 1 {
		return fmt.Errorf("passenger count must be at least 1, got: %d", count)
	}
	return nil
}
