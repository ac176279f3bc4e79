package services

import (
	"bytes"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

func TestSaveQuoteAssignsSequentialOrderNumbers(t *testing.T) {
	env := newTestEnv(t)

	first := env.saveQuote(t, "Confecções Lima", CalculationEntry{ColorID: env.branco.ID, Quantity: 100})
	second := env.saveQuote(t, "Malharia Alfa", CalculationEntry{ColorID: env.preto.ID, Quantity: 50})

	assert.Equal(t, int64(1), first.OrderNumber)
	assert.Equal(t, int64(2), second.OrderNumber)
	assert.Equal(t, models.QuoteKindQuote, first.Kind)
	assert.InDelta(t, 2964.52, first.TotalValue, 1e-2)
}

func TestSaveQuoteConcurrentOrderNumbersAreUnique(t *testing.T) {
	env := newTestEnv(t)

	const workers = 8
	numbers := make([]int64, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := env.quotes.Save(&SaveQuoteRequest{
				CalculationRequest: env.calcRequest(CalculationEntry{ColorID: env.branco.ID, Quantity: 10}),
				CustomerName:       "Cliente",
			}, env.admin.ID, true)
			errs[i] = err
			if err == nil {
				numbers[i] = q.OrderNumber
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Slice(numbers, func(a, b int) bool { return numbers[a] < numbers[b] })
	for i, n := range numbers {
		assert.Equal(t, int64(i+1), n)
	}
}

func TestSaveQuoteIgnoresLaterPriceChanges(t *testing.T) {
	env := newTestEnv(t)
	quote := env.saveQuote(t, "Cliente", CalculationEntry{ColorID: env.branco.ID, Quantity: 100})

	env.setPrices(t, 30.00, 70.00)
	_, err := env.dyeing.UpdateCost(env.mustDyeingCost(t, env.branco.ID).ID, &UpdateDyeingCostRequest{Cost: 12})
	require.NoError(t, err)

	stored, err := env.quotes.GetByOrderNumber(quote.OrderNumber)
	require.NoError(t, err)
	totals := SnapshotTotals(stored)
	assert.InDelta(t, quote.TotalValue, totals.TotalValue, 1e-9)
	for _, y := range stored.QuoteData.Breakdown.Yarns {
		if y.YarnTypeID == env.poliester.ID {
			assert.Equal(t, 15.00, y.Price)
		}
	}
	assert.Equal(t, 7.62, stored.QuoteData.Breakdown.Colors[0].DyeingCost)

	req := env.calcRequest(CalculationEntry{ColorID: env.branco.ID, Quantity: 100})
	live, err := env.calculator.Calculate(&req, true)
	require.NoError(t, err)
	assert.Greater(t, live.Totals.TotalValue, totals.TotalValue)
}

func TestSaveQuoteStoresMissingPriceWarnings(t *testing.T) {
	env := newTestEnv(t)
	poliamida, err := env.yarns.CreateYarnType(&CreateYarnTypeRequest{Name: "Poliamida"})
	require.NoError(t, err)
	_, err = env.products.SetComposition(env.product.ID, &SetCompositionRequest{
		Yarns: []CompositionItem{
			{YarnTypeID: poliamida.ID, Proportion: 0.9},
			{YarnTypeID: env.elastano.ID, Proportion: 0.1},
		},
	})
	require.NoError(t, err)

	quote := env.saveQuote(t, "Cliente", CalculationEntry{ColorID: env.branco.ID, Quantity: 10})
	assert.Equal(t, []string{"Poliamida"}, []string(quote.Warnings))

	stored, err := env.quotes.GetByID(quote.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Poliamida"}, []string(stored.Warnings))
}

func TestSaveQuoteValidatesInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.quotes.Save(&SaveQuoteRequest{
		CalculationRequest: env.calcRequest(CalculationEntry{ColorID: env.branco.ID, Quantity: 10}),
	}, env.admin.ID, true)
	assert.Error(t, err)

	_, err = env.quotes.Save(&SaveQuoteRequest{
		CalculationRequest: env.calcRequest(CalculationEntry{ColorID: env.branco.ID, Quantity: 10}),
		CustomerName:       "Cliente",
		Kind:               "invoice",
	}, env.admin.ID, true)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "kind", verr.Field)

	var count int64
	require.NoError(t, env.db.Model(&models.Quote{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestConvertToOrderKeepsOrderNumber(t *testing.T) {
	env := newTestEnv(t)
	quote := env.saveQuote(t, "Cliente", CalculationEntry{ColorID: env.branco.ID, Quantity: 10})

	order, err := env.quotes.ConvertToOrder(quote.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteKindOrder, order.Kind)
	assert.Equal(t, quote.OrderNumber, order.OrderNumber)
	assert.NotNil(t, order.ConvertedAt)

	_, err = env.quotes.ConvertToOrder(quote.OrderNumber)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "quote.already_order", conflict.Key)

	_, err = env.quotes.ConvertToOrder(999)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestListQuotesFilters(t *testing.T) {
	env := newTestEnv(t)
	env.saveQuote(t, "Confecções Lima", CalculationEntry{ColorID: env.branco.ID, Quantity: 10})
	second := env.saveQuote(t, "Malharia Alfa", CalculationEntry{ColorID: env.preto.ID, Quantity: 10})
	_, err := env.quotes.ConvertToOrder(second.OrderNumber)
	require.NoError(t, err)

	page := utils.PaginationParams{Page: 1, Limit: 20, Sort: "order_number", Order: "asc"}

	all, total, err := env.quotes.List(QuoteListParams{PaginationParams: page})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), all[0].OrderNumber)

	orders, total, err := env.quotes.List(QuoteListParams{PaginationParams: page, Kind: models.QuoteKindOrder})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, second.OrderNumber, orders[0].OrderNumber)

	search := page
	search.Search = "lima"
	found, _, err := env.quotes.List(QuoteListParams{PaginationParams: search})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Confecções Lima", found[0].CustomerName)

	other := uuid.New()
	_, total, err = env.quotes.List(QuoteListParams{PaginationParams: page, ProductID: &other})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestExportQuotesXLSX(t *testing.T) {
	env := newTestEnv(t)
	env.saveQuote(t, "Confecções Lima", CalculationEntry{ColorID: env.branco.ID, Quantity: 100})

	data, err := env.quotes.ExportXLSX(QuoteListParams{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Orcamentos")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Número", rows[0][0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Confecções Lima", rows[1][3])
	assert.Equal(t, "1020 - Suplex Light", rows[1][4])
}

func (env *testEnv) mustDyeingCost(t *testing.T, colorID uuid.UUID) *models.DyeingCost {
	t.Helper()
	var cost models.DyeingCost
	require.NoError(t, env.db.Where("color_id = ?", colorID).First(&cost).Error)
	return &cost
}
