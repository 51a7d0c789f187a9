package service

import "fmt"

// Коды бизнес-ошибок; HTTP-слой отображает их в статусы.
const CodeNotFound = "NOT_FOUND"
const CodeValidation = "VALIDATION_ERROR"
const CodeCategoryInUse = "CATEGORY_IN_USE"

type Resource string

const ResourceCategory Resource = "категория"
const ResourceTask Resource = "задача"
const ResourceSubtask Resource = "подзадача"

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func NewNotFound(resource Resource, key string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найдена", resource, key),
		Details: map[string]any{
			"resource": resource,
			"key":      key,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewCategoryInUse(slug string) *BusinessError {
	return &BusinessError{
		Code:    CodeCategoryInUse,
		Message: fmt.Sprintf("Категория %s используется задачами и не может быть удалена", slug),
		Details: map[string]any{
			"resource": ResourceCategory,
			"key":      slug,
		},
	}
}
