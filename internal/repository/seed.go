package repository

import "dayplanner/internal/models"

// DefaultCategories — фиксированный набор категорий первого запуска.
// Порядок важен: в нём они и отдаются из ListCategories после Seed.
func DefaultCategories() []*models.Category {
	return []*models.Category{
		{Slug: "work", Name: "Work", Color: "#5E81AC"},
		{Slug: "learning", Name: "Learning", Color: "#B48EAD"},
		{Slug: "health", Name: "Health", Color: "#A3BE8C"},
		{Slug: "personal", Name: "Personal", Color: "#EBCB8B"},
		{Slug: "reading", Name: "Reading", Color: "#D08770"},
		{Slug: "reflection", Name: "Reflection", Color: "#88C0D0"},
	}
}
