package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Определение бизнес-ошибок
var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrManagerNotFound     = errors.New("manager not found")
	ErrDuplicateEmployee   = errors.New("employee with this id already exists")
	ErrDuplicateEmployeeID = errors.New("employee with this employee_id already exists")
	ErrSelfReference       = errors.New("employee cannot be their own manager")
	ErrNoRoot              = errors.New("hierarchy has no root")
	ErrMultipleRoots       = errors.New("hierarchy has more than one root")
	ErrDanglingManager     = errors.New("manager reference points to a missing employee")
	ErrCycle               = errors.New("manager chain contains a cycle")
	ErrChartNotLoaded      = errors.New("org chart is not loaded")
)

// NoRootError - ни у одного сотрудника нет пустого manager_id
type NoRootError struct{}

func (e *NoRootError) Error() string {
	return ErrNoRoot.Error()
}

func (e *NoRootError) Is(target error) bool {
	return target == ErrNoRoot
}

// MultipleRootsError - найдено несколько сотрудников без руководителя
type MultipleRootsError struct {
	RootIDs []int64
}

func (e *MultipleRootsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMultipleRoots, joinIDs(e.RootIDs))
}

func (e *MultipleRootsError) Is(target error) bool {
	return target == ErrMultipleRoots
}

// DanglingManagerError - manager_id ссылается на несуществующего сотрудника
type DanglingManagerError struct {
	EmployeeID int64
	ManagerID  int64
}

func (e *DanglingManagerError) Error() string {
	return fmt.Sprintf("%s: employee %d references manager %d", ErrDanglingManager, e.EmployeeID, e.ManagerID)
}

func (e *DanglingManagerError) Is(target error) bool {
	return target == ErrDanglingManager
}

// CycleError - цепочка руководителей замкнута, либо переподчинение её замкнёт
type CycleError struct {
	EmployeeIDs []int64
}

func (e *CycleError) Error() string {
	if len(e.EmployeeIDs) == 0 {
		return ErrCycle.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCycle, joinIDs(e.EmployeeIDs))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// IsHierarchyError сообщает, что ошибка вызвана некорректной структурой подчинения
func IsHierarchyError(err error) bool {
	return errors.Is(err, ErrNoRoot) ||
		errors.Is(err, ErrMultipleRoots) ||
		errors.Is(err, ErrDanglingManager)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
