// internal/services/erp_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/config"
	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

// ERPService records every attempt to send a saved quote to the ERP and
// guards against resending an order the ERP may already have.
type ERPService struct {
	db       *gorm.DB
	cfg      config.ERPConfig
	client   *ERPClient
	quotes   *QuoteService
	settings *SettingsService
}

type SubmitERPRequest struct {
	// Confirm allows a new attempt after an ambiguous one.
	Confirm bool `json:"confirm"`
}

func NewERPService(db *gorm.DB, cfg config.ERPConfig, client *ERPClient, quotes *QuoteService, settings *SettingsService) *ERPService {
	return &ERPService{db: db, cfg: cfg, client: client, quotes: quotes, settings: settings}
}

// Submit sends the quote with orderNumber. The returned submission carries
// the outcome; a failed or ambiguous send is not an error of Submit.
func (s *ERPService) Submit(ctx context.Context, orderNumber int64, req *SubmitERPRequest, userID uuid.UUID) (*models.ERPSubmission, error) {
	enabled, err := s.settings.Bool(SettingERPEnabled, s.cfg.Enabled)
	if err != nil {
		return nil, err
	}
	if !enabled || !s.client.Configured() {
		return nil, &ConflictError{Key: "erp.disabled", Message: "ERP integration is disabled"}
	}

	quote, err := s.quotes.GetByOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}

	last, err := s.lastAttempt(quote.ID)
	if err != nil {
		return nil, err
	}

	key := uuid.New().String()
	attempt := 1
	if last != nil {
		attempt = last.Attempt + 1
		switch last.Status {
		case models.ERPStatusSuccess:
			return nil, &ConflictError{Key: "erp.already_submitted", Message: "order already accepted by the ERP as " + last.ERPNumber}
		case models.ERPStatusAmbiguous, models.ERPStatusPending:
			if !req.Confirm {
				return nil, &ConflictError{Key: "erp.confirm_required", Message: "last attempt has an unknown outcome, confirm to resend"}
			}
			key = last.IdempotencyKey
		}
	}

	payload := BuildERPPayload(quote, key)
	submission := &models.ERPSubmission{
		QuoteID:        quote.ID,
		OrderNumber:    quote.OrderNumber,
		IdempotencyKey: key,
		Attempt:        attempt,
		Status:         models.ERPStatusPending,
		Payload:        payloadJSON(payload),
		SubmittedBy:    userID,
	}
	if err := s.recordAttempt(submission); err != nil {
		return nil, err
	}

	resp, sendErr := s.client.Send(ctx, payload)

	now := time.Now()
	updates := map[string]interface{}{"completed_at": now}
	switch {
	case sendErr == nil:
		submission.Status = models.ERPStatusSuccess
		submission.ERPNumber = erpNumber(resp.Numero)
		updates["erp_number"] = submission.ERPNumber
	default:
		submission.Status = models.ERPStatusFailed
		var se *ERPSendError
		if errors.As(sendErr, &se) && se.Ambiguous {
			submission.Status = models.ERPStatusAmbiguous
		}
		submission.ErrorMessage = sendErr.Error()
		updates["error_message"] = submission.ErrorMessage
	}
	updates["status"] = submission.Status
	submission.CompletedAt = &now

	if err := s.db.Model(submission).Updates(updates).Error; err != nil {
		return nil, dependencyError("update ERP submission", err)
	}

	entry := logrus.WithFields(logrus.Fields{
		"order_number":    quote.OrderNumber,
		"attempt":         attempt,
		"status":          submission.Status,
		"idempotency_key": key,
	})
	if sendErr != nil {
		entry.WithError(sendErr).Warn("ERP submission did not succeed")
	} else {
		entry.WithField("erp_number", submission.ERPNumber).Info("ERP submission accepted")
	}
	return submission, nil
}

// History lists the attempts for a quote, newest first.
func (s *ERPService) History(orderNumber int64) ([]models.ERPSubmission, error) {
	quote, err := s.quotes.GetByOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}

	var rows []models.ERPSubmission
	if err := s.db.Where("quote_id = ?", quote.ID).Order("attempt DESC").Find(&rows).Error; err != nil {
		return nil, dependencyError("list ERP submissions", err)
	}
	return rows, nil
}

// recordAttempt inserts the pending row. Losing the race for the attempt
// number to another session means that session is already sending.
func (s *ERPService) recordAttempt(submission *models.ERPSubmission) error {
	if err := s.db.Create(submission).Error; err != nil {
		if isUniqueViolation(err) {
			return &ConflictError{Key: "erp.in_progress", Message: "another submission of this order is in progress"}
		}
		return dependencyError("record ERP submission", err)
	}
	return nil
}

func (s *ERPService) lastAttempt(quoteID uuid.UUID) (*models.ERPSubmission, error) {
	var last models.ERPSubmission
	res := s.db.Where("quote_id = ?", quoteID).Order("attempt DESC").Limit(1).Find(&last)
	if res.Error != nil {
		return nil, dependencyError("load ERP submissions", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &last, nil
}

// BuildERPPayload maps a saved quote snapshot to the ERP order summary.
func BuildERPPayload(q *models.Quote, key string) *ERPOrderPayload {
	b := q.QuoteData.Breakdown
	totals := b.Recompute()

	items := make([]ERPOrderItem, 0, len(b.Colors))
	for _, c := range b.Colors {
		items = append(items, ERPOrderItem{
			Cor:          c.ColorName,
			QuantidadeKg: c.Quantity,
			ValorKg:      utils.Round2(c.CostPerKg),
			ValorTotal:   utils.Round2(c.LineTotal),
		})
	}

	return &ERPOrderPayload{
		IdempotencyKey:    key,
		NumeroOrcamento:   q.OrderNumber,
		Cliente:           q.QuoteData.CustomerName,
		Produto:           ERPProduct{Codigo: b.Product.Code, Nome: b.Product.Name},
		Itens:             items,
		TotalKg:           totals.TotalKg,
		ValorTotal:        utils.Round2(totals.TotalValue),
		CondicaoPagamento: q.QuoteData.PaymentMethod,
		Observacao:        q.QuoteData.AdmDescription,
		Data:              q.CreatedAt.Format("2006-01-02"),
	}
}

func payloadJSON(p *ERPOrderPayload) models.JSONB {
	var out models.JSONB
	raw, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func erpNumber(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return fmt.Sprintf("%.0f", n)
	default:
		return fmt.Sprint(n)
	}
}
