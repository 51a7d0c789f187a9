package models

// Subtask принадлежит ровно одной задаче; удаление задачи каскадно
// удаляет её подзадачи (каскад выполняет слой хранения).
type Subtask struct {
	ID          int64  `json:"id" db:"id"`
	TaskID      int64  `json:"task_id" db:"task_id"`
	Description string `json:"description" db:"description"`
	Completed   bool   `json:"completed" db:"completed"`
}
