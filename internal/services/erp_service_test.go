package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serramalhas/malhas-backend/internal/config"
	"github.com/serramalhas/malhas-backend/internal/models"
)

// fakeERP answers each request with the next queued status and body and
// records what it received.
type fakeERP struct {
	mu       sync.Mutex
	replies  []fakeReply
	keys     []string
	payloads []ERPOrderPayload
}

type fakeReply struct {
	status int
	body   string
}

func (f *fakeERP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var p ERPOrderPayload
	_ = json.NewDecoder(r.Body).Decode(&p)
	f.keys = append(f.keys, r.Header.Get("Idempotency-Key"))
	f.payloads = append(f.payloads, p)

	reply := fakeReply{status: http.StatusOK, body: `{"success":true,"numero":1}`}
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.status)
	_, _ = w.Write([]byte(reply.body))
}

func newERPService(env *testEnv, endpoint string) *ERPService {
	cfg := config.ERPConfig{Enabled: true, Endpoint: endpoint, TimeoutSeconds: 5}
	return NewERPService(env.db, cfg, NewERPClient(cfg), env.quotes, env.settings)
}

func TestSubmitERPSuccess(t *testing.T) {
	env := newTestEnv(t)
	erp := &fakeERP{replies: []fakeReply{{http.StatusOK, `{"success":true,"numero":123}`}}}
	srv := httptest.NewServer(erp)
	defer srv.Close()
	svc := newERPService(env, srv.URL)

	quote := env.saveQuote(t, "Confecções Lima", CalculationEntry{ColorID: env.branco.ID, Quantity: 100})

	sub, err := svc.Submit(context.Background(), quote.OrderNumber, &SubmitERPRequest{}, env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ERPStatusSuccess, sub.Status)
	assert.Equal(t, "123", sub.ERPNumber)
	assert.Equal(t, 1, sub.Attempt)

	require.Len(t, erp.payloads, 1)
	assert.Equal(t, sub.IdempotencyKey, erp.keys[0])
	sent := erp.payloads[0]
	assert.Equal(t, quote.OrderNumber, sent.NumeroOrcamento)
	assert.Equal(t, "Confecções Lima", sent.Cliente)
	assert.Equal(t, "1020", sent.Produto.Codigo)
	require.Len(t, sent.Itens, 1)
	assert.Equal(t, "BRANCO", sent.Itens[0].Cor)
	assert.InDelta(t, 2964.52, sent.ValorTotal, 1e-2)
	assert.Equal(t, "30/60 dias", sent.CondicaoPagamento)

	_, err = svc.Submit(context.Background(), quote.OrderNumber, &SubmitERPRequest{Confirm: true}, env.admin.ID)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "erp.already_submitted", conflict.Key)
	assert.Len(t, erp.payloads, 1)
}

func TestSubmitERPAmbiguousNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	erp := &fakeERP{replies: []fakeReply{
		{http.StatusInternalServerError, `{"success":false,"error":"timeout no banco"}`},
		{http.StatusOK, `{"success":true,"numero":"PV-77"}`},
	}}
	srv := httptest.NewServer(erp)
	defer srv.Close()
	svc := newERPService(env, srv.URL)

	quote := env.saveQuote(t, "Cliente", CalculationEntry{ColorID: env.branco.ID, Quantity: 10})

	first, err := svc.Submit(context.Background(), quote.OrderNumber, &SubmitERPRequest{}, env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ERPStatusAmbiguous, first.Status)
	assert.Contains(t, first.ErrorMessage, "timeout no banco")

	_, err = svc.Submit(context.Background(), quote.OrderNumber, &SubmitERPRequest{}, env.admin.ID)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "erp.confirm_required", conflict.Key)

	second, err := svc.Submit(context.Background(), quote.OrderNumber, &SubmitERPRequest{Confirm: true}, env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ERPStatusSuccess, second.Status)
	assert.Equal(t, "PV-77", second.ERPNumber)
	assert.Equal(t, 2, second.Attempt)
	assert.Equal(t, first.IdempotencyKey, second.IdempotencyKey)
	assert.Equal(t, []string{first.IdempotencyKey, first.IdempotencyKey}, erp.keys)

	history, err := svc.History(quote.OrderNumber)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Attempt)
	assert.NotNil(t, history[1].CompletedAt)
}

func TestSubmitERPRejectedIsFailedAndRetriable(t *testing.T) {
	env := newTestEnv(t)
	erp := &fakeERP{replies: []fakeReply{
		{http.StatusOK, `{"success":false,"error":"cliente bloqueado"}`},
		{http.StatusOK, `{"success":true,"numero":9}`},
	}}
	srv := httptest.NewServer(erp)
	defer srv.Close()
	svc := newERPService(env, srv.URL)

	quote := env.saveQuote(t, "Cliente", CalculationEntry{ColorID: env.branco.ID, Quantity: 10})

	first, err := svc.Submit(context.Background(), quote.OrderNumber, &SubmitERPRequest{}, env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ERPStatusFailed, first.Status)
	assert.Equal(t, "cliente bloqueado", first.ErrorMessage)

	second, err := svc.Submit(context.Background(), quote.OrderNumber, &SubmitERPRequest{}, env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ERPStatusSuccess, second.Status)
	assert.NotEqual(t, first.IdempotencyKey, second.IdempotencyKey)
}

func TestSubmitERPUnreachableIsFailed(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(&fakeERP{})
	endpoint := srv.URL
	srv.Close()
	svc := newERPService(env, endpoint)

	quote := env.saveQuote(t, "Cliente", CalculationEntry{ColorID: env.branco.ID, Quantity: 10})

	sub, err := svc.Submit(context.Background(), quote.OrderNumber, &SubmitERPRequest{}, env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ERPStatusFailed, sub.Status)
}

func TestSubmitERPDisabled(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(&fakeERP{})
	defer srv.Close()
	quote := env.saveQuote(t, "Cliente", CalculationEntry{ColorID: env.branco.ID, Quantity: 10})

	var conflict *ConflictError

	_, err := newERPService(env, "").Submit(context.Background(), quote.OrderNumber, &SubmitERPRequest{}, env.admin.ID)
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "erp.disabled", conflict.Key)

	_, err = env.settings.Set(SettingERPEnabled, &UpdateSettingRequest{Value: false}, env.admin.ID)
	require.NoError(t, err)
	_, err = newERPService(env, srv.URL).Submit(context.Background(), quote.OrderNumber, &SubmitERPRequest{}, env.admin.ID)
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "erp.disabled", conflict.Key)
}

func TestSubmitERPUnknownQuote(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(&fakeERP{})
	defer srv.Close()

	_, err := newERPService(env, srv.URL).Submit(context.Background(), 404, &SubmitERPRequest{}, env.admin.ID)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestRecordAttemptRejectsConcurrentSameAttempt(t *testing.T) {
	env := newTestEnv(t)
	fake := &fakeERP{}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	svc := newERPService(env, srv.URL)

	quote := env.saveQuote(t, "Cliente", CalculationEntry{ColorID: env.branco.ID, Quantity: 10})
	attempt := func(key string) *models.ERPSubmission {
		return &models.ERPSubmission{
			QuoteID:        quote.ID,
			OrderNumber:    quote.OrderNumber,
			IdempotencyKey: key,
			Attempt:        1,
			Status:         models.ERPStatusPending,
			SubmittedBy:    env.admin.ID,
		}
	}

	require.NoError(t, svc.recordAttempt(attempt("first-session")))

	err := svc.recordAttempt(attempt("second-session"))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "erp.in_progress", conflict.Key)

	var count int64
	require.NoError(t, env.db.Model(&models.ERPSubmission{}).Where("quote_id = ?", quote.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Empty(t, fake.keys)
}
