package service

import (
	"context"
	"strings"

	"github.com/org-chart-api/internal/domain"
	"github.com/org-chart-api/internal/dto"
	"github.com/org-chart-api/internal/repository"
)

// EmployeeService определяет интерфейс бизнес-логики для сотрудников
type EmployeeService interface {
	Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*domain.Employee, error)
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	List(ctx context.Context, query *dto.ListEmployeesQuery) ([]domain.Employee, error)
}

type employeeService struct {
	empRepo repository.EmployeeRepository
	chart   ChartService
}

// NewEmployeeService создаёт новый экземпляр сервиса
func NewEmployeeService(empRepo repository.EmployeeRepository, chart ChartService) EmployeeService {
	return &employeeService{
		empRepo: empRepo,
		chart:   chart,
	}
}

func (s *employeeService) Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*domain.Employee, error) {
	emp := &domain.Employee{
		EmployeeID:  strings.TrimSpace(req.EmployeeID),
		FullName:    strings.TrimSpace(req.FullName),
		Department:  strings.TrimSpace(req.Department),
		Designation: strings.TrimSpace(req.Designation),
		ManagerID:   req.ManagerID,
	}

	// Новый сотрудник не должен создавать второй корень или ссылаться в пустоту
	if _, err := s.chart.Hire(ctx, emp); err != nil {
		return nil, err
	}

	return emp, nil
}

func (s *employeeService) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	return s.empRepo.GetByID(ctx, id)
}

func (s *employeeService) List(ctx context.Context, query *dto.ListEmployeesQuery) ([]domain.Employee, error) {
	department := strings.TrimSpace(query.Department)
	if department != "" {
		return s.empRepo.ListByDepartment(ctx, department)
	}
	return s.empRepo.List(ctx)
}
