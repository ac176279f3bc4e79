// internal/services/yarn_service.go
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/serramalhas/malhas-backend/internal/config"
	"github.com/serramalhas/malhas-backend/internal/costing"
	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

const dateLayout = "2006-01-02"

// PricingCalendar answers "which date is today" for daily prices, in the
// business timezone.
type PricingCalendar struct {
	loc *time.Location
	now func() time.Time
}

func NewPricingCalendar(cfg config.PricingConfig) *PricingCalendar {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("BRT", -3*60*60)
	}
	return &PricingCalendar{loc: loc, now: time.Now}
}

func (c *PricingCalendar) Today() string {
	return c.now().In(c.loc).Format(dateLayout)
}

func (c *PricingCalendar) Now() time.Time {
	return c.now().In(c.loc)
}

// SetClock replaces the time source.
func (c *PricingCalendar) SetClock(now func() time.Time) {
	c.now = now
}

type YarnService struct {
	db       *gorm.DB
	calendar *PricingCalendar
}

type CreateYarnTypeRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Unit string `json:"unit" validate:"max=10"`
}

type YarnPriceItem struct {
	YarnTypeID uuid.UUID `json:"yarn_type_id" validate:"required"`
	Price      float64   `json:"price"`
}

type SaveYarnPricesRequest struct {
	Prices []YarnPriceItem `json:"prices" validate:"required,min=1,dive"`
}

type SaveYarnPricesResult struct {
	EffectiveDate string             `json:"effective_date"`
	Saved         []models.YarnPrice `json:"saved"`
	Skipped       []uuid.UUID        `json:"skipped,omitempty"`
}

// YarnTypeView is a yarn type with its class and today's price, if any.
type YarnTypeView struct {
	models.YarnType
	Class      costing.YarnClass `json:"class"`
	TodayPrice *float64          `json:"today_price"`
}

type YarnTypeGroups struct {
	Main     []YarnTypeView `json:"main"`
	Elastane []YarnTypeView `json:"elastane"`
}

func NewYarnService(db *gorm.DB, calendar *PricingCalendar) *YarnService {
	return &YarnService{db: db, calendar: calendar}
}

func (s *YarnService) CreateYarnType(req *CreateYarnTypeRequest) (*models.YarnType, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	unit := strings.ToUpper(strings.TrimSpace(req.Unit))
	if unit == "" {
		unit = "KG"
	}
	yarn := &models.YarnType{Name: strings.TrimSpace(req.Name), Unit: unit}
	if yarn.Class() == costing.YarnClassFreight {
		return nil, newValidationError("name", "freight is managed as its own daily price")
	}

	if err := s.db.Create(yarn).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Key: "yarn_type.exists", Message: "yarn type already exists"}
		}
		return nil, dependencyError("create yarn type", err)
	}
	return yarn, nil
}

func (s *YarnService) GetYarnType(id uuid.UUID) (*models.YarnType, error) {
	var yarn models.YarnType
	if err := s.db.First(&yarn, "id = ?", id).Error; err != nil {
		return nil, lookupError("yarn_type", "load yarn type", err)
	}
	return &yarn, nil
}

// ListYarnTypes splits yarn types into main and elastane with today's price.
func (s *YarnService) ListYarnTypes() (*YarnTypeGroups, error) {
	var yarns []models.YarnType
	if err := s.db.Order("name").Find(&yarns).Error; err != nil {
		return nil, dependencyError("list yarn types", err)
	}

	prices, err := s.PricesOn(s.calendar.Today())
	if err != nil {
		return nil, err
	}

	groups := &YarnTypeGroups{Main: []YarnTypeView{}, Elastane: []YarnTypeView{}}
	for _, y := range yarns {
		view := YarnTypeView{YarnType: y, Class: y.Class()}
		if p, ok := prices[y.ID]; ok {
			price := p
			view.TodayPrice = &price
		}
		switch view.Class {
		case costing.YarnClassElastane:
			groups.Elastane = append(groups.Elastane, view)
		case costing.YarnClassMain:
			groups.Main = append(groups.Main, view)
		}
	}
	return groups, nil
}

// SaveTodayPrices upserts today's price of each yarn type. Negative prices
// are skipped.
func (s *YarnService) SaveTodayPrices(req *SaveYarnPricesRequest) (*SaveYarnPricesResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	today := s.calendar.Today()
	result := &SaveYarnPricesResult{EffectiveDate: today, Saved: []models.YarnPrice{}}

	var rows []models.YarnPrice
	index := make(map[uuid.UUID]int)
	for _, item := range req.Prices {
		if item.Price < 0 {
			result.Skipped = append(result.Skipped, item.YarnTypeID)
			continue
		}
		// the last price sent for a yarn wins
		if i, ok := index[item.YarnTypeID]; ok {
			rows[i].Price = item.Price
			continue
		}
		index[item.YarnTypeID] = len(rows)
		rows = append(rows, models.YarnPrice{
			YarnTypeID:    item.YarnTypeID,
			EffectiveDate: today,
			Price:         item.Price,
		})
	}
	if len(rows) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.YarnTypeID)
	}
	var known int64
	if err := s.db.Model(&models.YarnType{}).Where("id IN ?", ids).Count(&known).Error; err != nil {
		return nil, dependencyError("check yarn types", err)
	}
	if int(known) != len(ids) {
		return nil, &NotFoundError{Resource: "yarn_type"}
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "yarn_type_id"}, {Name: "effective_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at", "deleted_at"}),
	}).Create(&rows).Error
	if err != nil {
		return nil, dependencyError("save yarn prices", err)
	}

	result.Saved = rows
	return result, nil
}

// PricesOn returns the price per yarn type for one date.
func (s *YarnService) PricesOn(date string) (map[uuid.UUID]float64, error) {
	var rows []models.YarnPrice
	if err := s.db.Where("effective_date = ?", date).Find(&rows).Error; err != nil {
		return nil, dependencyError("load yarn prices", err)
	}

	prices := make(map[uuid.UUID]float64, len(rows))
	for _, r := range rows {
		prices[r.YarnTypeID] = r.Price
	}
	return prices, nil
}

func (s *YarnService) TodayPrices() ([]models.YarnPrice, error) {
	var rows []models.YarnPrice
	if err := s.db.Preload("YarnType").Where("effective_date = ?", s.calendar.Today()).
		Find(&rows).Error; err != nil {
		return nil, dependencyError("load yarn prices", err)
	}
	return rows, nil
}

func (s *YarnService) PriceHistory(yarnTypeID uuid.UUID, limit int) ([]models.YarnPrice, error) {
	if _, err := s.GetYarnType(yarnTypeID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 365 {
		limit = 30
	}

	var rows []models.YarnPrice
	if err := s.db.Where("yarn_type_id = ?", yarnTypeID).Order("effective_date DESC").
		Limit(limit).Find(&rows).Error; err != nil {
		return nil, dependencyError("load yarn price history", err)
	}
	return rows, nil
}

// MissingTodayCount counts yarn types without a price for today.
func (s *YarnService) MissingTodayCount() (int64, error) {
	priced := s.db.Model(&models.YarnPrice{}).Select("yarn_type_id").Where("effective_date = ?", s.calendar.Today())

	var count int64
	if err := s.db.Model(&models.YarnType{}).Where("id NOT IN (?)", priced).Count(&count).Error; err != nil {
		return 0, dependencyError("count unpriced yarns", err)
	}
	return count, nil
}

type FreightService struct {
	db       *gorm.DB
	calendar *PricingCalendar
}

type SaveFreightRequest struct {
	Price float64 `json:"price" validate:"gte=0"`
}

func NewFreightService(db *gorm.DB, calendar *PricingCalendar) *FreightService {
	return &FreightService{db: db, calendar: calendar}
}

// SaveToday upserts today's freight price.
func (s *FreightService) SaveToday(req *SaveFreightRequest) (*models.FreightPrice, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	row := &models.FreightPrice{EffectiveDate: s.calendar.Today(), Price: req.Price}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "effective_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at", "deleted_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, dependencyError("save freight price", err)
	}
	return row, nil
}

// Today returns today's freight price, nil when none was registered.
func (s *FreightService) Today() (*models.FreightPrice, error) {
	var row models.FreightPrice
	res := s.db.Where("effective_date = ?", s.calendar.Today()).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, dependencyError("load freight price", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}
