package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCompositionWarnsAboveOneHundredPercent(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.products.SetComposition(env.product.ID, &SetCompositionRequest{
		Yarns: []CompositionItem{
			{YarnTypeID: env.poliester.ID, Proportion: 0.94},
			{YarnTypeID: env.elastano.ID, Proportion: 0.5},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.44, result.Total, 1e-9)
	assert.Len(t, result.Warnings, 1)
	assert.Equal(t, env.poliester.ID, result.Yarns[0].YarnTypeID)

	result, err = env.products.GetComposition(env.product.ID)
	require.NoError(t, err)
	assert.Len(t, result.Yarns, 2)
}

func TestSetCompositionRejectsRepeatedYarn(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.products.SetComposition(env.product.ID, &SetCompositionRequest{
		Yarns: []CompositionItem{
			{YarnTypeID: env.poliester.ID, Proportion: 0.5},
			{YarnTypeID: env.poliester.ID, Proportion: 0.5},
		},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "yarns", verr.Field)

	_, err = env.products.SetComposition(env.product.ID, &SetCompositionRequest{
		Yarns: []CompositionItem{{YarnTypeID: uuid.New(), Proportion: 1}},
	})
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "yarn_type", nf.Resource)

	current, err := env.products.GetComposition(env.product.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, current.Total, 1e-9)
}

func TestCreateProductDuplicateCode(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.products.CreateProduct(&CreateProductRequest{
		Code:             "1020",
		Name:             "Outro",
		EfficiencyFactor: 0.9,
	})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "product.code_exists", conflict.Key)

	_, err = env.products.CreateProduct(&CreateProductRequest{
		Code:             "2030",
		Name:             "Sem eficiência",
		EfficiencyFactor: 1.2,
	})
	assert.Error(t, err)
}

func TestDeleteProductInUse(t *testing.T) {
	env := newTestEnv(t)

	err := env.products.DeleteProduct(env.product.ID)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "product.in_use", conflict.Key)

	spare, err := env.products.CreateProduct(&CreateProductRequest{
		Code:             "3040",
		Name:             "Helanca",
		EfficiencyFactor: 0.95,
	})
	require.NoError(t, err)
	require.NoError(t, env.products.DeleteProduct(spare.ID))

	_, err = env.products.GetProduct(spare.ID)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestListPublicHidesInactiveProducts(t *testing.T) {
	env := newTestEnv(t)
	inactive := false
	_, err := env.products.CreateProduct(&CreateProductRequest{
		Code:             "0999",
		Name:             "Fora de linha",
		EfficiencyFactor: 0.9,
		IsActive:         &inactive,
	})
	require.NoError(t, err)

	products, err := env.products.ListPublic()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "1020", products[0].Code)
	assert.NotNil(t, products[0].Images)
}

func TestProductGroupColorsSpansTheGroup(t *testing.T) {
	env := newTestEnv(t)

	empty, err := env.colors.ProductGroupColors(env.product.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	group := uuid.New()
	_, err = env.products.UpdateProduct(env.product.ID, &UpdateProductRequest{GroupID: &group})
	require.NoError(t, err)

	sibling, err := env.products.CreateProduct(&CreateProductRequest{
		Code:             "1021",
		Name:             "Suplex Light Peletizado",
		EfficiencyFactor: 0.93,
		GroupID:          &group,
	})
	require.NoError(t, err)
	verde, err := env.colors.CreateColor(&CreateColorRequest{Name: "Verde Bandeira"})
	require.NoError(t, err)
	_, err = env.dyeing.Add(&AddDyeingCostRequest{
		TinturariaID: env.tinturaria.ID,
		ProductID:    sibling.ID,
		ColorID:      verde.ID,
		Cost:         10,
	})
	require.NoError(t, err)

	colors, err := env.colors.ProductGroupColors(env.product.ID)
	require.NoError(t, err)
	assert.Equal(t, []ColorOption{
		{ID: env.branco.ID, Name: "BRANCO"},
		{ID: env.preto.ID, Name: "PRETO"},
		{ID: verde.ID, Name: "VERDE BANDEIRA"},
	}, colors)

	unknown, err := env.colors.ProductGroupColors(uuid.New())
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestCreateColorNormalizesAndRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)

	color, err := env.colors.CreateColor(&CreateColorRequest{Name: "  azul   royal "})
	require.NoError(t, err)
	assert.Equal(t, "AZUL ROYAL", color.Name)

	_, err = env.colors.CreateColor(&CreateColorRequest{Name: "Azul Royal"})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "color.exists", conflict.Key)
}
