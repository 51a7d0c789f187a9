package dto

import (
	"time"

	"dayplanner/internal/models"
)

type CreateCategoryRequest struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type UpdateCategoryRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

type CreateTaskRequest struct {
	Name                string    `json:"name"`
	BriefDescription    string    `json:"brief_description"`
	DetailedDescription *string   `json:"detailed_description,omitempty"`
	Category            string    `json:"category"`
	Frequency           string    `json:"frequency"`
	DueDate             time.Time `json:"due_date"`
	Priority            string    `json:"priority,omitempty"`
	Subtasks            []string  `json:"subtasks,omitempty"`
}

type UpdateTaskRequest struct {
	Name                *string    `json:"name,omitempty"`
	BriefDescription    *string    `json:"brief_description,omitempty"`
	DetailedDescription *string    `json:"detailed_description,omitempty"`
	Category            *string    `json:"category,omitempty"`
	Frequency           *string    `json:"frequency,omitempty"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	Priority            *string    `json:"priority,omitempty"`
	Completed           *bool      `json:"completed,omitempty"`
}

type CreateSubtaskRequest struct {
	Description string `json:"description"`
}

type UpdateSubtaskRequest struct {
	Completed *bool `json:"completed"`
}

type TaskResponse struct {
	ID                  int64              `json:"id"`
	Name                string             `json:"name"`
	BriefDescription    string             `json:"brief_description"`
	DetailedDescription *string            `json:"detailed_description,omitempty"`
	CategorySlug        string             `json:"category_slug"`
	Frequency           string             `json:"frequency"`
	DueDate             time.Time          `json:"due_date"`
	Priority            string             `json:"priority"`
	Completed           bool               `json:"completed"`
	CreatedAt           time.Time          `json:"created_at"`
	IsOverdue           bool               `json:"is_overdue"`
	Subtasks            []*models.Subtask  `json:"subtasks"`
	Category            *models.Category   `json:"category,omitempty"`
}

func FromTask(t *models.TaskWithSubtasks) TaskResponse {
	return TaskResponse{
		ID:                  t.ID,
		Name:                t.Name,
		BriefDescription:    t.BriefDescription,
		DetailedDescription: t.DetailedDescription,
		CategorySlug:        t.CategorySlug,
		Frequency:           string(t.Frequency),
		DueDate:             t.DueDate,
		Priority:            string(t.Priority),
		Completed:           t.Completed,
		CreatedAt:           t.CreatedAt,
		IsOverdue:           !t.Completed && t.DueDate.Before(time.Now()),
		Subtasks:            t.Subtasks,
		Category:            t.Category,
	}
}

func FromTaskList(tasks []*models.TaskWithSubtasks) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}
