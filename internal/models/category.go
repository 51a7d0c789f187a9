package models

// Category группирует задачи по сферам (работа, здоровье и т.д.).
// Slug — естественный ключ: уникальный, человекочитаемый, стабильный в URL.
type Category struct {
	Slug  string `json:"slug" db:"slug"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"` // hex, например "#5E81AC"
}
