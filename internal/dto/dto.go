package dto

import (
	"time"
)

// CreateEmployeeRequest - запрос на создание сотрудника
type CreateEmployeeRequest struct {
	EmployeeID  string `json:"employee_id" validate:"required,min=1,max=50"`
	FullName    string `json:"full_name" validate:"required,min=1,max=200"`
	Department  string `json:"department" validate:"required,min=1,max=200"`
	Designation string `json:"designation" validate:"required,min=1,max=200"`
	ManagerID   *int64 `json:"manager_id" validate:"omitempty,min=1"`
}

// ChangeManagerRequest - запрос на смену руководителя
type ChangeManagerRequest struct {
	ManagerID int64 `json:"manager_id" validate:"required,min=1"`
}

// ListEmployeesQuery - параметры запроса списка сотрудников
type ListEmployeesQuery struct {
	Department string `validate:"omitempty,max=200"`
}

// EmployeeResponse - ответ с данными сотрудника
type EmployeeResponse struct {
	ID          int64     `json:"id"`
	EmployeeID  string    `json:"employee_id"`
	FullName    string    `json:"full_name"`
	Department  string    `json:"department"`
	Designation string    `json:"designation"`
	ManagerID   *int64    `json:"manager_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NodeResponse - узел схемы
type NodeResponse struct {
	ID       int64            `json:"id"`
	Employee EmployeeResponse `json:"employee"`
	Depth    int              `json:"depth"`
	X        float64          `json:"x"`
	Y        float64          `json:"y"`
}

// EdgeResponse - связь руководитель -> подчинённый
type EdgeResponse struct {
	ID       string `json:"id"`
	SourceID int64  `json:"source_id"`
	TargetID int64  `json:"target_id"`
}

// LayoutResponse - рассчитанная оргсхема
type LayoutResponse struct {
	Nodes  []NodeResponse `json:"nodes"`
	Edges  []EdgeResponse `json:"edges"`
	Levels [][]int64      `json:"levels"`
}

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
