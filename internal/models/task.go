package models

import "time"

type Task struct {
	ID                  int64     `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	BriefDescription    string    `json:"brief_description" db:"brief_description"`
	DetailedDescription *string   `json:"detailed_description,omitempty" db:"detailed_description"`
	CategorySlug        string    `json:"category_slug" db:"category_slug"`
	Frequency           Frequency `json:"frequency" db:"frequency"`
	DueDate             time.Time `json:"due_date" db:"due_date"`
	Priority            Priority  `json:"priority" db:"priority"`
	Completed           bool      `json:"completed" db:"completed"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

type Frequency string
type Priority string

const FrequencyDaily Frequency = "daily"
const FrequencyWeekly Frequency = "weekly"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"

// DefaultPriority подставляется, если приоритет не задан при создании.
const DefaultPriority = PriorityMedium

func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// TaskWithSubtasks — модель чтения: задача вместе с подзадачами и
// разрешённой категорией. Собирается заново на каждое чтение, не хранится.
// Category == nil, если slug задачи никуда не указывает.
type TaskWithSubtasks struct {
	Task
	Subtasks []*Subtask `json:"subtasks"`
	Category *Category  `json:"category,omitempty"`
}
