// Package seed загружает начальный справочник сотрудников из YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/org-chart-api/internal/domain"
	"github.com/org-chart-api/internal/repository"
)

var (
	ErrEmptyEmployeeID    = errors.New("seed: employee_id is required")
	ErrDuplicateCode      = errors.New("seed: duplicate employee_id")
	ErrUnknownManagerCode = errors.New("seed: manager must reference an earlier employee_id")
	ErrMultipleRoots      = errors.New("seed: more than one employee without manager")
)

// Entry - запись сотрудника в seed-файле
type Entry struct {
	EmployeeID  string `yaml:"employee_id"`
	FullName    string `yaml:"full_name"`
	Department  string `yaml:"department"`
	Designation string `yaml:"designation"`
	Manager     string `yaml:"manager"`
}

// File - корневая структура seed-файла
type File struct {
	Employees []Entry `yaml:"employees"`
}

// Load читает и валидирует seed-файл
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает YAML и проверяет ссылки на руководителей
func Parse(data []byte) ([]Entry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}

	seen := make(map[string]bool, len(f.Employees))
	var root string
	for i, e := range f.Employees {
		code := strings.TrimSpace(e.EmployeeID)
		if code == "" {
			return nil, fmt.Errorf("%w (entry %d)", ErrEmptyEmployeeID, i)
		}
		if seen[code] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
		}
		if e.Manager != "" && !seen[e.Manager] {
			return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownManagerCode, code, e.Manager)
		}
		if e.Manager == "" {
			if root != "" {
				return nil, fmt.Errorf("%w: %s, %s", ErrMultipleRoots, root, code)
			}
			root = code
		}
		seen[code] = true
		f.Employees[i].EmployeeID = code
	}

	return f.Employees, nil
}

// Apply записывает сотрудников в пустое хранилище в порядке файла одной транзакцией.
// Возвращает число созданных записей; непустое хранилище не трогается.
func Apply(ctx context.Context, repo repository.EmployeeRepository, entries []Entry) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	err = repo.WithinTransaction(ctx, func(tx repository.EmployeeRepository) error {
		ids := make(map[string]int64, len(entries))
		for _, e := range entries {
			emp := &domain.Employee{
				EmployeeID:  e.EmployeeID,
				FullName:    e.FullName,
				Department:  e.Department,
				Designation: e.Designation,
			}
			if e.Manager != "" {
				managerID, ok := ids[e.Manager]
				if !ok {
					return fmt.Errorf("%w: %s -> %s", ErrUnknownManagerCode, e.EmployeeID, e.Manager)
				}
				emp.ManagerID = &managerID
			}

			if err := tx.Create(ctx, emp); err != nil {
				return fmt.Errorf("seed: create %s: %w", e.EmployeeID, err)
			}
			ids[e.EmployeeID] = emp.ID
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(entries), nil
}
