package hierarchy

import (
	"github.com/org-chart-api/internal/domain"
)

// IsDescendant проверяет, входит ли candidateID в поддерево ancestorID.
// Поднимается по цепочке руководителей от candidateID, поэтому корректно
// завершается и на данных с циклами.
func IsDescendant(employees []domain.Employee, ancestorID, candidateID int64) bool {
	managers := make(map[int64]*int64, len(employees))
	for i := range employees {
		managers[employees[i].ID] = employees[i].ManagerID
	}

	visited := make(map[int64]bool)
	current := candidateID
	for {
		managerID, ok := managers[current]
		if !ok || managerID == nil {
			return false
		}
		if *managerID == ancestorID {
			return true
		}
		if visited[current] {
			return false
		}
		visited[current] = true
		current = *managerID
	}
}

// ValidateReparent проверяет, что сотруднику можно назначить нового руководителя
func ValidateReparent(employees []domain.Employee, employeeID, newManagerID int64) error {
	var employeeFound, managerFound bool
	for i := range employees {
		if employees[i].ID == employeeID {
			employeeFound = true
		}
		if employees[i].ID == newManagerID {
			managerFound = true
		}
	}

	if !employeeFound {
		return domain.ErrEmployeeNotFound
	}
	if employeeID == newManagerID {
		return domain.ErrSelfReference
	}
	if !managerFound {
		return domain.ErrManagerNotFound
	}

	// Нельзя подчинить сотрудника его же потомку
	if IsDescendant(employees, employeeID, newManagerID) {
		return &domain.CycleError{EmployeeIDs: []int64{employeeID, newManagerID}}
	}

	return nil
}

// Reparent возвращает копию списка, в которой у employeeID новый руководитель.
// Исходный срез не изменяется.
func Reparent(employees []domain.Employee, employeeID, newManagerID int64) ([]domain.Employee, error) {
	if err := ValidateReparent(employees, employeeID, newManagerID); err != nil {
		return nil, err
	}

	updated := Clone(employees)
	for i := range updated {
		if updated[i].ID == employeeID {
			managerID := newManagerID
			updated[i].ManagerID = &managerID
			break
		}
	}
	return updated, nil
}

// Clone делает глубокую копию списка, включая указатели manager_id
func Clone(employees []domain.Employee) []domain.Employee {
	out := make([]domain.Employee, len(employees))
	copy(out, employees)
	for i := range out {
		if out[i].ManagerID != nil {
			managerID := *out[i].ManagerID
			out[i].ManagerID = &managerID
		}
	}
	return out
}

// ValidateAddition проверяет, что нового сотрудника с руководителем managerID
// можно добавить, не нарушив единственность корня
func ValidateAddition(employees []domain.Employee, managerID *int64) error {
	if managerID == nil {
		if len(employees) == 0 {
			return nil
		}
		var roots []int64
		for i := range employees {
			if employees[i].ManagerID == nil {
				roots = append(roots, employees[i].ID)
			}
		}
		return &domain.MultipleRootsError{RootIDs: roots}
	}

	for i := range employees {
		if employees[i].ID == *managerID {
			return nil
		}
	}
	return domain.ErrManagerNotFound
}
