// internal/services/admin_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

type AdminService struct {
	db       *gorm.DB
	yarns    *YarnService
	calendar *PricingCalendar
}

type AdminDashboardStats struct {
	ActiveProducts         int64   `json:"active_products"`
	Colors                 int64   `json:"colors"`
	Tinturarias            int64   `json:"tinturarias"`
	QuotesThisMonth        int64   `json:"quotes_this_month"`
	OrdersThisMonth        int64   `json:"orders_this_month"`
	KgThisMonth            float64 `json:"kg_this_month"`
	ValueThisMonth         float64 `json:"value_this_month"`
	YarnsMissingTodayPrice int64   `json:"yarns_missing_today_price"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	Role *models.UserRole `json:"role,omitempty"`
}

type UpdateUserRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=admin user"`
}

type AuditLogFilter struct {
	utils.PaginationParams
	ResourceType string     `json:"resource_type,omitempty"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
}

// QuoteAnalytics sums the quotes created in [From, To).
type QuoteAnalytics struct {
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Quotes     int64     `json:"quotes"`
	Orders     int64     `json:"orders"`
	TotalKg    float64   `json:"total_kg"`
	TotalValue float64   `json:"total_value"`
}

func NewAdminService(db *gorm.DB, yarns *YarnService, calendar *PricingCalendar) *AdminService {
	return &AdminService{
		db:       db,
		yarns:    yarns,
		calendar: calendar,
	}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats() (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := s.calendar.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	// Reference data
	if err := s.db.Model(&models.Product{}).Where("is_active = ?", true).Count(&stats.ActiveProducts).Error; err != nil {
		return nil, dependencyError("count products", err)
	}
	if err := s.db.Model(&models.Color{}).Count(&stats.Colors).Error; err != nil {
		return nil, dependencyError("count colors", err)
	}
	if err := s.db.Model(&models.Tinturaria{}).Count(&stats.Tinturarias).Error; err != nil {
		return nil, dependencyError("count tinturarias", err)
	}

	// Quote statistics
	month := s.db.Model(&models.Quote{}).Where("created_at >= ?", monthStart)
	if err := month.Session(&gorm.Session{}).Count(&stats.QuotesThisMonth).Error; err != nil {
		return nil, dependencyError("count quotes", err)
	}
	if err := month.Session(&gorm.Session{}).Where("kind = ?", models.QuoteKindOrder).Count(&stats.OrdersThisMonth).Error; err != nil {
		return nil, dependencyError("count orders", err)
	}
	if err := month.Session(&gorm.Session{}).Select("COALESCE(SUM(total_kg), 0)").Scan(&stats.KgThisMonth).Error; err != nil {
		return nil, dependencyError("sum quoted kg", err)
	}
	if err := month.Session(&gorm.Session{}).Select("COALESCE(SUM(total_value), 0)").Scan(&stats.ValueThisMonth).Error; err != nil {
		return nil, dependencyError("sum quoted value", err)
	}
	stats.ValueThisMonth = utils.Round2(stats.ValueThisMonth)

	missing, err := s.yarns.MissingTodayCount()
	if err != nil {
		return nil, err
	}
	stats.YarnsMissingTodayPrice = missing

	return stats, nil
}

// User Management
func (s *AdminService) GetUsers(filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if pattern := utils.SearchPattern(filter.PaginationParams); pattern != "" {
		query = query.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, dependencyError("count users", err)
	}

	allowedSortFields := []string{"created_at", "email", "full_name", "role", "last_login_at"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, dependencyError("list users", err)
	}
	return users, total, nil
}

// UpdateUserRole grants or removes the admin role. An admin cannot demote
// themselves, so the back office always keeps one.
func (s *AdminService) UpdateUserRole(userID uuid.UUID, req *UpdateUserRoleRequest, adminID uuid.UUID) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if userID == adminID && req.Role != models.UserRoleAdmin {
		return nil, &ForbiddenError{Message: "admins cannot remove their own admin role"}
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, lookupError("user", "load user", err)
	}

	oldRole := user.Role
	if err := s.db.Model(&user).Update("role", req.Role).Error; err != nil {
		return nil, dependencyError("update user role", err)
	}
	user.Role = req.Role

	s.createAuditLog(adminID, "UPDATE_USER_ROLE", "user", &userID,
		map[string]interface{}{"old_role": oldRole, "role": req.Role})

	return &user, nil
}

func (s *AdminService) GetAuditLogs(filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{})

	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if pattern := utils.SearchPattern(filter.PaginationParams); pattern != "" {
		query = query.Where("LOWER(action) LIKE ?", pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, dependencyError("count audit logs", err)
	}

	allowedSortFields := []string{"created_at", "action", "resource_type", "status_code"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, dependencyError("list audit logs", err)
	}
	return logs, total, nil
}

func (s *AdminService) GetAnalytics(from, to time.Time) (*QuoteAnalytics, error) {
	if !to.After(from) {
		return nil, newValidationError("to", "end date must be after start date")
	}

	out := &QuoteAnalytics{From: from, To: to}
	period := s.db.Model(&models.Quote{}).Where("created_at >= ? AND created_at < ?", from, to)

	if err := period.Session(&gorm.Session{}).Where("kind = ?", models.QuoteKindQuote).Count(&out.Quotes).Error; err != nil {
		return nil, dependencyError("count quotes", err)
	}
	if err := period.Session(&gorm.Session{}).Where("kind = ?", models.QuoteKindOrder).Count(&out.Orders).Error; err != nil {
		return nil, dependencyError("count orders", err)
	}
	if err := period.Session(&gorm.Session{}).Select("COALESCE(SUM(total_kg), 0)").Scan(&out.TotalKg).Error; err != nil {
		return nil, dependencyError("sum quoted kg", err)
	}
	if err := period.Session(&gorm.Session{}).Select("COALESCE(SUM(total_value), 0)").Scan(&out.TotalValue).Error; err != nil {
		return nil, dependencyError("sum quoted value", err)
	}
	out.TotalValue = utils.Round2(out.TotalValue)
	return out, nil
}

// Helper methods
func (s *AdminService) createAuditLog(userID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, newValues map[string]interface{}) {
	auditLog := &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		NewValues:    models.JSONB(newValues),
	}

	if err := s.db.Create(auditLog).Error; err != nil {
		logrus.WithError(err).WithField("action", action).Error("Failed to create audit log")
	}
}
