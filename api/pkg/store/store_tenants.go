package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/types"
)

func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *types.Tenant) (*types.Tenant, error) {
	if tenant.ID == "" {
		tenant.ID = system.GenerateTenantID()
	}
	if tenant.Name == "" {
		return nil, fmt.Errorf("name not specified")
	}
	if tenant.APIKey == "" {
		tenant.APIKey = system.GenerateUUID()
	}

	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = time.Now()

	err := s.gdb.WithContext(ctx).Create(tenant).Error
	if err != nil {
		return nil, err
	}
	return s.GetTenant(ctx, tenant.ID)
}

func (s *PostgresStore) GetTenant(ctx context.Context, id string) (*types.Tenant, error) {
	if id == "" {
		return nil, fmt.Errorf("id not specified")
	}

	var tenant types.Tenant
	err := s.gdb.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (s *PostgresStore) GetTenantByAPIKey(ctx context.Context, apiKey string) (*types.Tenant, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key not specified")
	}

	var tenant types.Tenant
	err := s.gdb.WithContext(ctx).Where("api_key = ?", apiKey).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (s *PostgresStore) CreateStaff(ctx context.Context, staff *types.Staff) (*types.Staff, error) {
	if staff.ID == "" {
		staff.ID = system.GenerateStaffID()
	}
	if staff.TenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	staff.CreatedAt = time.Now()
	staff.UpdatedAt = time.Now()

	err := s.gdb.WithContext(ctx).Create(staff).Error
	if err != nil {
		return nil, err
	}
	return s.GetStaff(ctx, staff.TenantID, staff.ID)
}

func (s *PostgresStore) GetStaff(ctx context.Context, tenantID, id string) (*types.Staff, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	var staff types.Staff
	err := s.gdb.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &staff, nil
}

func (s *PostgresStore) ListStaff(ctx context.Context, tenantID string) ([]*types.Staff, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	var staff []*types.Staff
	err := s.gdb.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&staff).Error
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *PostgresStore) UpdateStaffCalendarSync(ctx context.Context, tenantID, id, status, errMsg string) error {
	result := s.gdb.WithContext(ctx).Model(&types.Staff{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"calendar_sync_status": status,
			"calendar_sync_error":  errMsg,
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateService(ctx context.Context, service *types.Service) (*types.Service, error) {
	if service.ID == "" {
		service.ID = system.GenerateServiceID()
	}
	if service.TenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}
	if service.DurationMinutes <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}

	service.CreatedAt = time.Now()
	service.UpdatedAt = time.Now()

	err := s.gdb.WithContext(ctx).Create(service).Error
	if err != nil {
		return nil, err
	}
	return s.GetService(ctx, service.TenantID, service.ID)
}

func (s *PostgresStore) GetService(ctx context.Context, tenantID, id string) (*types.Service, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	var service types.Service
	err := s.gdb.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &service, nil
}

func (s *PostgresStore) ListServices(ctx context.Context, tenantID string) ([]*types.Service, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	var services []*types.Service
	err := s.gdb.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}
