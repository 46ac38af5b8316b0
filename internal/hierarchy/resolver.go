// Package hierarchy строит оргсхему из плоского списка сотрудников.
//
// Все функции пакета чистые: они не изменяют переданный срез и не выполняют ввод-вывод.
package hierarchy

import (
	"fmt"

	"github.com/org-chart-api/internal/domain"
)

const (
	// HorizontalSpacing - расстояние между соседями одного уровня
	HorizontalSpacing = 350
	// VerticalSpacing - расстояние между уровнями
	VerticalSpacing = 200
)

// index - сотрудники, проиндексированные по id, и списки прямых подчинённых
type index struct {
	byID     map[int64]*domain.Employee
	children map[int64][]int64
	root     int64
}

// Resolve валидирует структуру подчинения и вычисляет раскладку схемы
func Resolve(employees []domain.Employee) (*domain.Layout, error) {
	idx, err := buildIndex(employees)
	if err != nil {
		return nil, err
	}

	levels, _, err := idx.walk(employees)
	if err != nil {
		return nil, err
	}

	layout := &domain.Layout{
		Nodes:  make([]domain.Node, 0, len(employees)),
		Edges:  make([]domain.Edge, 0, len(employees)),
		Levels: levels,
	}

	for depth, level := range levels {
		for i, id := range level {
			layout.Nodes = append(layout.Nodes, domain.Node{
				ID:       id,
				Employee: *idx.byID[id],
				Depth:    depth,
				X:        position(i, len(level)),
				Y:        float64(depth * VerticalSpacing),
			})
		}
	}

	for _, emp := range employees {
		if emp.ManagerID == nil {
			continue
		}
		layout.Edges = append(layout.Edges, domain.Edge{
			ID:       EdgeID(*emp.ManagerID, emp.ID),
			SourceID: *emp.ManagerID,
			TargetID: emp.ID,
		})
	}

	return layout, nil
}

// Levels возвращает только уровни глубины, без позиций и связей
func Levels(employees []domain.Employee) ([][]int64, error) {
	idx, err := buildIndex(employees)
	if err != nil {
		return nil, err
	}
	levels, _, err := idx.walk(employees)
	return levels, err
}

// Depths возвращает глубину каждого сотрудника (число шагов до корня)
func Depths(employees []domain.Employee) (map[int64]int, error) {
	idx, err := buildIndex(employees)
	if err != nil {
		return nil, err
	}
	_, depths, err := idx.walk(employees)
	return depths, err
}

// EdgeID формирует детерминированный идентификатор связи
func EdgeID(sourceID, targetID int64) string {
	return fmt.Sprintf("e%d-%d", sourceID, targetID)
}

func position(siblingIndex, levelSize int) float64 {
	return (float64(siblingIndex) - float64(levelSize-1)/2) * HorizontalSpacing
}

func buildIndex(employees []domain.Employee) (*index, error) {
	idx := &index{
		byID:     make(map[int64]*domain.Employee, len(employees)),
		children: make(map[int64][]int64),
	}

	for i := range employees {
		emp := &employees[i]
		if _, ok := idx.byID[emp.ID]; ok {
			return nil, fmt.Errorf("%w: %d", domain.ErrDuplicateEmployee, emp.ID)
		}
		idx.byID[emp.ID] = emp
	}

	var roots []int64
	for i := range employees {
		emp := &employees[i]
		if emp.ManagerID == nil {
			roots = append(roots, emp.ID)
			continue
		}
		if _, ok := idx.byID[*emp.ManagerID]; !ok {
			return nil, &domain.DanglingManagerError{EmployeeID: emp.ID, ManagerID: *emp.ManagerID}
		}
		// порядок подчинённых совпадает с порядком во входном срезе
		idx.children[*emp.ManagerID] = append(idx.children[*emp.ManagerID], emp.ID)
	}

	switch len(roots) {
	case 0:
		return nil, &domain.NoRootError{}
	case 1:
		idx.root = roots[0]
	default:
		return nil, &domain.MultipleRootsError{RootIDs: roots}
	}

	return idx, nil
}

// walk обходит дерево в глубину от корня и раскладывает сотрудников по уровням
func (idx *index) walk(employees []domain.Employee) ([][]int64, map[int64]int, error) {
	type frame struct {
		id    int64
		depth int
	}

	visited := make(map[int64]bool, len(idx.byID))
	depths := make(map[int64]int, len(idx.byID))
	var levels [][]int64

	stack := []frame{{id: idx.root}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[cur.id] {
			return nil, nil, &domain.CycleError{EmployeeIDs: []int64{cur.id}}
		}
		visited[cur.id] = true
		depths[cur.id] = cur.depth

		if cur.depth == len(levels) {
			levels = append(levels, nil)
		}
		levels[cur.depth] = append(levels[cur.depth], cur.id)

		kids := idx.children[cur.id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i], depth: cur.depth + 1})
		}
	}

	if len(visited) < len(employees) {
		var unreachable []int64
		for _, emp := range employees {
			if !visited[emp.ID] {
				unreachable = append(unreachable, emp.ID)
			}
		}
		return nil, nil, &domain.CycleError{EmployeeIDs: unreachable}
	}

	return levels, depths, nil
}
