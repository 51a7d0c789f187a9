package models

import "time"

// TaskOption — функция частичного обновления задачи: каждая опция
// меняет ровно одно поле, остальные остаются как были.
type TaskOption func(*Task)

func WithName(name string) TaskOption {
	return func(task *Task) {
		task.Name = name
	}
}

func WithBriefDescription(brief string) TaskOption {
	return func(task *Task) {
		task.BriefDescription = brief
	}
}

func WithDetailedDescription(detailed string) TaskOption {
	return func(task *Task) {
		task.DetailedDescription = &detailed
	}
}

func WithCategorySlug(slug string) TaskOption {
	return func(task *Task) {
		task.CategorySlug = slug
	}
}

func WithFrequency(frequency Frequency) TaskOption {
	return func(task *Task) {
		task.Frequency = frequency
	}
}

func WithDueDate(dueDate time.Time) TaskOption {
	return func(task *Task) {
		task.DueDate = dueDate
	}
}

func WithPriority(priority Priority) TaskOption {
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithCompleted(completed bool) TaskOption {
	return func(task *Task) {
		task.Completed = completed
	}
}
