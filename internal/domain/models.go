package domain

import (
	"time"
)

// Employee представляет сотрудника в оргструктуре
type Employee struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	EmployeeID  string    `json:"employee_id" gorm:"type:varchar(50);not null;uniqueIndex"`
	FullName    string    `json:"full_name" gorm:"type:varchar(200);not null"`
	Department  string    `json:"department" gorm:"type:varchar(200);not null;index"`
	Designation string    `json:"designation" gorm:"type:varchar(200);not null"`
	ManagerID   *int64    `json:"manager_id" gorm:"index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Employee) TableName() string {
	return "employees"
}

// IsRoot сообщает, что у сотрудника нет руководителя
func (e *Employee) IsRoot() bool {
	return e.ManagerID == nil
}

// Node - сотрудник с вычисленной позицией на схеме
type Node struct {
	ID       int64    `json:"id"`
	Employee Employee `json:"employee"`
	Depth    int      `json:"depth"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
}

// Edge - направленная связь руководитель -> подчинённый
type Edge struct {
	ID       string `json:"id"`
	SourceID int64  `json:"source_id"`
	TargetID int64  `json:"target_id"`
}

// Layout - результат построения оргсхемы
type Layout struct {
	Nodes  []Node    `json:"nodes"`
	Edges  []Edge    `json:"edges"`
	Levels [][]int64 `json:"levels"`
}

// Root возвращает корневой узел схемы
func (l *Layout) Root() (Node, bool) {
	for _, n := range l.Nodes {
		if n.Depth == 0 {
			return n, true
		}
	}
	return Node{}, false
}

// NodeByID ищет узел по идентификатору сотрудника
func (l *Layout) NodeByID(id int64) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
