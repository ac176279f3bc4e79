package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serramalhas/malhas-backend/internal/costing"
)

func TestCalculateWithTodayPrices(t *testing.T) {
	env := newTestEnv(t)

	req := env.calcRequest(CalculationEntry{ColorID: env.branco.ID, Quantity: 100})
	b, err := env.calculator.Calculate(&req, false)
	require.NoError(t, err)

	assert.Equal(t, "2026-10-15", b.PricingDate)
	assert.InDelta(t, 16.20, b.TotalYarnCost, 1e-9)
	require.Len(t, b.Colors, 1)
	assert.Equal(t, "BRANCO", b.Colors[0].ColorName)
	assert.InDelta(t, 27.57, b.Colors[0].RawCost, 1e-9)
	assert.InDelta(t, 29.6452, b.Colors[0].CostPerKg, 1e-4)
	assert.InDelta(t, 2964.52, b.Totals.TotalValue, 1e-2)
	assert.Nil(t, b.MissingPrice)
}

func TestCalculateAddsFreight(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.freight.SaveToday(&SaveFreightRequest{Price: 0.93})
	require.NoError(t, err)

	req := env.calcRequest(CalculationEntry{ColorID: env.branco.ID, Quantity: 10})
	b, err := env.calculator.Calculate(&req, false)
	require.NoError(t, err)

	assert.Equal(t, 0.93, b.FreightCost)
	assert.InDelta(t, 28.50, b.Colors[0].RawCost, 1e-9)
}

func TestCalculateRequiresSelection(t *testing.T) {
	env := newTestEnv(t)

	req := CalculationRequest{
		TinturariaID: env.tinturaria.ID,
		Entries:      []CalculationEntry{{ColorID: env.branco.ID, Quantity: 10}},
	}
	_, err := env.calculator.Calculate(&req, false)
	assert.Equal(t, costing.CodeSelectionRequired, calcCode(t, err))
}

func TestCalculateRejectsColorWithoutDyeingCost(t *testing.T) {
	env := newTestEnv(t)
	azul, err := env.colors.CreateColor(&CreateColorRequest{Name: "Azul Royal"})
	require.NoError(t, err)

	req := env.calcRequest(
		CalculationEntry{ColorID: env.branco.ID, Quantity: 10},
		CalculationEntry{ColorID: azul.ID, Quantity: 10},
	)
	_, err = env.calculator.Calculate(&req, false)
	assert.Equal(t, costing.CodeColorUnavailable, calcCode(t, err))
}

func TestCalculateConversionFactorOverrideIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	factor := 1.5

	req := env.calcRequest(CalculationEntry{ColorID: env.branco.ID, Quantity: 10})
	req.ConversionFactor = &factor

	asUser, err := env.calculator.Calculate(&req, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, asUser.ConversionFactor)

	asAdmin, err := env.calculator.Calculate(&req, true)
	require.NoError(t, err)
	assert.Equal(t, 1.5, asAdmin.ConversionFactor)
	assert.InDelta(t, asUser.Colors[0].RawCost+1.5, asAdmin.Colors[0].RawCost, 1e-9)
}

func TestCalculateUsesDefaultConversionFactorSetting(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.settings.Set(SettingDefaultConversionFactor, &UpdateSettingRequest{Value: 0.4}, env.admin.ID)
	require.NoError(t, err)

	req := env.calcRequest(CalculationEntry{ColorID: env.branco.ID, Quantity: 10})
	b, err := env.calculator.Calculate(&req, false)
	require.NoError(t, err)
	assert.Equal(t, 0.4, b.ConversionFactor)

	own := 0.25
	_, err = env.tinturarias.Update(env.tinturaria.ID, &UpdateTinturariaRequest{ConversionFactor: &own})
	require.NoError(t, err)

	b, err = env.calculator.Calculate(&req, false)
	require.NoError(t, err)
	assert.Equal(t, 0.25, b.ConversionFactor)
}

func TestCalculateWarnsWhenPricesAreMissing(t *testing.T) {
	env := newTestEnv(t)
	env.calendar.SetClock(func() time.Time { return fixedNow.AddDate(0, 0, 1) })

	req := env.calcRequest(CalculationEntry{ColorID: env.branco.ID, Quantity: 10})
	b, err := env.calculator.Calculate(&req, false)
	require.NoError(t, err)

	require.NotNil(t, b.MissingPrice)
	assert.ElementsMatch(t, []string{"Poliéster", "Elastano 20"}, b.MissingPrice.Yarns)
	assert.Equal(t, 0.0, b.TotalYarnCost)
}

func TestCalculateSubstitutesMainYarn(t *testing.T) {
	env := newTestEnv(t)
	poliamida, err := env.yarns.CreateYarnType(&CreateYarnTypeRequest{Name: "Poliamida"})
	require.NoError(t, err)
	_, err = env.yarns.SaveTodayPrices(&SaveYarnPricesRequest{
		Prices: []YarnPriceItem{{YarnTypeID: poliamida.ID, Price: 22.00}},
	})
	require.NoError(t, err)

	req := env.calcRequest(CalculationEntry{ColorID: env.branco.ID, Quantity: 10})
	req.Substitutions = map[uuid.UUID]uuid.UUID{env.poliester.ID: poliamida.ID}
	b, err := env.calculator.Calculate(&req, false)
	require.NoError(t, err)

	require.Len(t, b.Yarns, 2)
	var replaced *costing.YarnLine
	for i := range b.Yarns {
		if b.Yarns[i].OriginalName != "" {
			replaced = &b.Yarns[i]
		}
	}
	require.NotNil(t, replaced)
	assert.Equal(t, "Poliamida", replaced.Name)
	assert.Equal(t, "Poliéster", replaced.OriginalName)
	assert.InDelta(t, 22.00*0.94+35.00*0.06, b.TotalYarnCost, 1e-9)

	req.Substitutions = map[uuid.UUID]uuid.UUID{env.poliester.ID: uuid.New()}
	_, err = env.calculator.Calculate(&req, false)
	assert.Equal(t, costing.CodeInvalidSubstitution, calcCode(t, err))
}
