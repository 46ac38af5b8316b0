package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/org-chart-api/internal/domain"
	"github.com/org-chart-api/internal/hierarchy"
	"github.com/org-chart-api/internal/metrics"
	"github.com/org-chart-api/internal/render"
	"github.com/org-chart-api/internal/repository"
)

// ManagerChangeHook получает уведомление о применённой смене руководителя
type ManagerChangeHook interface {
	ManagerChanged(ctx context.Context, employeeID, managerID int64) error
}

// HookFunc позволяет использовать функцию как ManagerChangeHook
type HookFunc func(ctx context.Context, employeeID, managerID int64) error

func (f HookFunc) ManagerChanged(ctx context.Context, employeeID, managerID int64) error {
	return f(ctx, employeeID, managerID)
}

// PersistManagerChange сохраняет смену руководителя через репозиторий
func PersistManagerChange(repo repository.EmployeeRepository) ManagerChangeHook {
	return HookFunc(func(ctx context.Context, employeeID, managerID int64) error {
		return repo.UpdateManager(ctx, employeeID, &managerID)
	})
}

// ChartService определяет интерфейс работы с оргсхемой
type ChartService interface {
	Load(ctx context.Context) (*domain.Layout, error)
	Layout(ctx context.Context) (*domain.Layout, error)
	Employees(ctx context.Context) []domain.Employee
	Resolve(ctx context.Context) (*domain.Layout, error)
	Reset(ctx context.Context) (*domain.Layout, error)
	Reparent(ctx context.Context, employeeID, managerID int64) (*domain.Layout, error)
	Hire(ctx context.Context, emp *domain.Employee) (*domain.Layout, error)
	Render(ctx context.Context, w io.Writer) error
	ContentType() string
}

// chartService хранит справочник в памяти и последнюю корректную раскладку.
// Любая мутация выполняется под записью и сразу пересчитывает схему целиком.
type chartService struct {
	mu        sync.RWMutex
	employees []domain.Employee
	layout    *domain.Layout
	// loadErr - причина, по которой последняя загрузка не дала схему
	loadErr error

	repo     repository.EmployeeRepository
	renderer render.Renderer
	hook     ManagerChangeHook
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewChartService создаёт новый экземпляр сервиса. hook и collector могут быть nil.
func NewChartService(
	repo repository.EmployeeRepository,
	renderer render.Renderer,
	hook ManagerChangeHook,
	collector *metrics.Collector,
	logger *slog.Logger,
) ChartService {
	return &chartService{
		repo:     repo,
		renderer: renderer,
		hook:     hook,
		metrics:  collector,
		logger:   logger,
	}
}

func (s *chartService) Load(ctx context.Context) (*domain.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// load вызывается под s.mu
func (s *chartService) load(ctx context.Context) (*domain.Layout, error) {
	employees, err := s.repo.List(ctx)
	if err != nil {
		err = fmt.Errorf("load employees: %w", err)
	} else {
		var layout *domain.Layout
		if layout, err = s.publish(employees); err == nil {
			s.loadErr = nil
			return layout, nil
		}
	}

	if s.layout == nil {
		s.loadErr = err
	}
	return nil, err
}

func (s *chartService) Layout(_ context.Context) (*domain.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.layout == nil {
		return nil, s.notLoaded()
	}
	return s.layout, nil
}

// notLoaded возвращает причину отсутствия схемы. Вызывается под s.mu.
func (s *chartService) notLoaded() error {
	if s.loadErr != nil {
		return s.loadErr
	}
	return domain.ErrChartNotLoaded
}

func (s *chartService) Employees(_ context.Context) []domain.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return hierarchy.Clone(s.employees)
}

func (s *chartService) Resolve(_ context.Context) (*domain.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.layout == nil {
		return nil, s.notLoaded()
	}
	return s.publish(s.employees)
}

// Reset перечитывает справочник из хранилища и пересчитывает схему
func (s *chartService) Reset(ctx context.Context) (*domain.Layout, error) {
	return s.Load(ctx)
}

func (s *chartService) Reparent(ctx context.Context, employeeID, managerID int64) (*domain.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layout, err := s.reparent(ctx, employeeID, managerID)
	s.metrics.ObserveReparent(err)
	return layout, err
}

func (s *chartService) reparent(ctx context.Context, employeeID, managerID int64) (*domain.Layout, error) {
	if s.layout == nil {
		return nil, s.notLoaded()
	}

	updated, err := hierarchy.Reparent(s.employees, employeeID, managerID)
	if err != nil {
		return nil, err
	}

	layout, err := hierarchy.Resolve(updated)
	s.metrics.ObserveResolve(err, len(updated), levelCount(layout))
	if err != nil {
		return nil, err
	}

	if s.hook != nil {
		if err := s.hook.ManagerChanged(ctx, employeeID, managerID); err != nil {
			s.logger.Error("manager change hook failed, change discarded",
				slog.Int64("employee_id", employeeID),
				slog.Int64("manager_id", managerID),
				slog.Any("error", err),
			)
			return nil, fmt.Errorf("persist manager change: %w", err)
		}
	}

	s.employees = updated
	s.layout = layout

	s.logger.Info("manager changed",
		slog.Int64("employee_id", employeeID),
		slog.Int64("manager_id", managerID),
	)
	return layout, nil
}

// Hire проверяет, сохраняет и публикует нового сотрудника под одной блокировкой.
// Запись удаляется из хранилища, если с ней схема не строится.
func (s *chartService) Hire(ctx context.Context, emp *domain.Employee) (*domain.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.layout == nil {
		// пустой справочник в памяти допустим только для пустого хранилища
		count, err := s.repo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count employees: %w", err)
		}
		if count > 0 {
			return nil, s.notLoaded()
		}
	}

	if err := hierarchy.ValidateAddition(s.employees, emp.ManagerID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, emp); err != nil {
		return nil, err
	}

	candidate := append(hierarchy.Clone(s.employees), hierarchy.Clone([]domain.Employee{*emp})...)
	layout, err := s.publish(candidate)
	if err != nil {
		if delErr := s.repo.Delete(ctx, emp.ID); delErr != nil {
			s.logger.Error("failed to roll back employee",
				slog.Int64("employee_id", emp.ID),
				slog.Any("error", delErr),
			)
		}
		return nil, err
	}

	s.loadErr = nil
	return layout, nil
}

func (s *chartService) Render(ctx context.Context, w io.Writer) error {
	layout, err := s.Layout(ctx)
	if err != nil {
		return err
	}
	return s.renderer.Render(ctx, layout, w)
}

func (s *chartService) ContentType() string {
	return s.renderer.ContentType()
}

// publish пересчитывает схему и при успехе делает её текущей.
// При ошибке остаются прежние справочник и раскладка. Вызывается под s.mu.
func (s *chartService) publish(employees []domain.Employee) (*domain.Layout, error) {
	layout, err := hierarchy.Resolve(employees)
	s.metrics.ObserveResolve(err, len(employees), levelCount(layout))
	if err != nil {
		s.logger.Warn("hierarchy rejected, keeping last layout", slog.Any("error", err))
		return nil, err
	}

	s.employees = employees
	s.layout = layout
	return layout, nil
}

func levelCount(layout *domain.Layout) int {
	if layout == nil {
		return 0
	}
	return len(layout.Levels)
}
