package services

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/serramalhas/malhas-backend/internal/models"
)

const pastedPriceList = "Artigo\tCor\tBRANCO\n" +
	"Tinturaria\tSerra\t1020\tkg\tR$ 8,15\n" +
	"\n" +
	"Artigo\tCor\tAzul  marinho\n" +
	"Tinturaria\tSerra\t1020\tkg\t11,40\n" +
	"\n" +
	"Artigo\tCUSTO\n" +
	"Tinturaria\tSerra\t1020\tkg\t1,00\n" +
	"\n" +
	"Artigo\tCor\tVERDE\n" +
	"Observação\tsem preço\n"

func TestParseDyeingText(t *testing.T) {
	parsed := ParseDyeingText(pastedPriceList)

	require.Len(t, parsed, 2)
	assert.Equal(t, ParsedColorCost{ColorName: "BRANCO", Cost: 8.15}, parsed[0])
	assert.Equal(t, ParsedColorCost{ColorName: "Azul  marinho", Cost: 11.40}, parsed[1])
}

func TestParseDyeingTextWindowsLineEndings(t *testing.T) {
	text := "x\tROSA\r\nTinturaria\ta\tb\tc\t5,5\r\n"
	parsed := ParseDyeingText(text)

	require.Len(t, parsed, 1)
	assert.Equal(t, "ROSA", parsed[0].ColorName)
	assert.Equal(t, 5.5, parsed[0].Cost)
}

func TestImportTextPreviewDoesNotWrite(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.dyeing.ImportText(&ImportDyeingCostsRequest{
		TinturariaID: env.tinturaria.ID,
		ProductID:    env.product.ID,
		Text:         pastedPriceList,
	})
	require.NoError(t, err)
	assert.False(t, result.Committed)
	assert.Len(t, result.Parsed, 2)

	costs, err := env.dyeing.List(env.tinturaria.ID, env.product.ID, "")
	require.NoError(t, err)
	assert.Len(t, costs, 2)
}

func TestImportTextCommitUpsertsAndCreatesColors(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.dyeing.ImportText(&ImportDyeingCostsRequest{
		TinturariaID: env.tinturaria.ID,
		ProductID:    env.product.ID,
		Text:         pastedPriceList,
		Commit:       true,
	})
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Skipped)

	costs, err := env.dyeing.List(env.tinturaria.ID, env.product.ID, "")
	require.NoError(t, err)
	byName := make(map[string]float64)
	for _, c := range costs {
		byName[c.Color.Name] = c.Cost
	}
	assert.Equal(t, map[string]float64{"BRANCO": 8.15, "PRETO": 9.10, "AZUL MARINHO": 11.40}, byName)
}

func TestImportTextRejectsEmptyInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.dyeing.ImportText(&ImportDyeingCostsRequest{
		TinturariaID: env.tinturaria.ID,
		ProductID:    env.product.ID,
		Text:         "nothing to see here",
		Commit:       true,
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "import_empty", verr.Code)
}

func TestImportTextUnknownPair(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.dyeing.ImportText(&ImportDyeingCostsRequest{
		TinturariaID: uuid.New(),
		ProductID:    env.product.ID,
		Text:         pastedPriceList,
	})
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "tinturaria", nf.Resource)
}

func dyeingWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Tabela de preços Serra"))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Código", "Cor", "Custo"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"01", "Vermelho", "8,40"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A5", &[]interface{}{"02", "preto", 10.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A6", &[]interface{}{"03", "Sem custo", ""}))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseDyeingXLSX(t *testing.T) {
	parsed, err := ParseDyeingXLSX(dyeingWorkbook(t))
	require.NoError(t, err)

	assert.Equal(t, []ParsedColorCost{
		{ColorName: "Vermelho", Cost: 8.40},
		{ColorName: "preto", Cost: 10.5},
	}, parsed)
}

func TestParseDyeingXLSXRejectsGarbage(t *testing.T) {
	_, err := ParseDyeingXLSX([]byte("not a workbook"))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "file", verr.Field)
}

func TestImportXLSXCommit(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.dyeing.ImportXLSX(env.tinturaria.ID, env.product.ID, dyeingWorkbook(t), true)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Created)

	rates, err := env.dyeing.Rates(env.tinturaria.ID, env.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.5, rates[env.preto.ID].Cost)
	assert.Len(t, rates, 3)
}

func TestAvailableColorsOnlyListsCostedColors(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.colors.CreateColor(&CreateColorRequest{Name: "Lilás"})
	require.NoError(t, err)

	colors, err := env.dyeing.AvailableColors(env.tinturaria.ID, env.product.ID)
	require.NoError(t, err)
	assert.Equal(t, []ColorOption{
		{ID: env.branco.ID, Name: "BRANCO"},
		{ID: env.preto.ID, Name: "PRETO"},
	}, colors)
}

func TestAddDyeingCostDuplicateIsConflict(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.dyeing.Add(&AddDyeingCostRequest{
		TinturariaID: env.tinturaria.ID,
		ProductID:    env.product.ID,
		ColorID:      env.branco.ID,
		Cost:         5,
	})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "dyeing_cost.exists", conflict.Key)
}

func TestDeleteTinturariaInUse(t *testing.T) {
	env := newTestEnv(t)

	err := env.tinturarias.Delete(env.tinturaria.ID)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "tinturaria.in_use", conflict.Key)

	for _, id := range []uuid.UUID{env.branco.ID, env.preto.ID} {
		require.NoError(t, env.dyeing.Delete(env.mustDyeingCost(t, id).ID))
	}
	require.NoError(t, env.tinturarias.Delete(env.tinturaria.ID))

	var count int64
	require.NoError(t, env.db.Model(&models.Tinturaria{}).Count(&count).Error)
	assert.Zero(t, count)
}
