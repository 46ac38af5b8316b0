package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/org-chart-api/internal/domain"
	"gorm.io/gorm"
)

// EmployeeRepository определяет интерфейс для работы с сотрудниками
type EmployeeRepository interface {
	Create(ctx context.Context, emp *domain.Employee) error
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	List(ctx context.Context) ([]domain.Employee, error)
	ListByDepartment(ctx context.Context, department string) ([]domain.Employee, error)
	Count(ctx context.Context) (int64, error)
	UpdateManager(ctx context.Context, id int64, managerID *int64) error
	Delete(ctx context.Context, id int64) error
	WithinTransaction(ctx context.Context, fn func(repo EmployeeRepository) error) error
}

type employeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository создаёт новый экземпляр репозитория
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	err := r.db.WithContext(ctx).Create(emp).Error
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEmployeeID
	}
	return err
}

func (r *employeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	var emp domain.Employee
	err := r.db.WithContext(ctx).First(&emp, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

// List возвращает всех сотрудников в порядке добавления
func (r *employeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	var employees []domain.Employee
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&employees).Error
	return employees, err
}

func (r *employeeRepository) ListByDepartment(ctx context.Context, department string) ([]domain.Employee, error) {
	var employees []domain.Employee
	err := r.db.WithContext(ctx).
		Where("department = ?", department).
		Order("id ASC").
		Find(&employees).Error
	return employees, err
}

func (r *employeeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Employee{}).Count(&count).Error
	return count, err
}

func (r *employeeRepository) UpdateManager(ctx context.Context, id int64, managerID *int64) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Employee{}).
		Where("id = ?", id).
		Update("manager_id", managerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

func (r *employeeRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&domain.Employee{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

// WithinTransaction выполняет fn в транзакции; ошибка fn откатывает все изменения
func (r *employeeRepository) WithinTransaction(ctx context.Context, fn func(repo EmployeeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&employeeRepository{db: tx})
	})
}

// isUniqueViolation распознаёт нарушение уникальности для postgres и sqlite
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
