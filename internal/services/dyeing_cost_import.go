// internal/services/dyeing_cost_import.go
package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/utils"
)

var blankLineSplit = regexp.MustCompile(`\n\s*\n`)

// ParsedColorCost is one color and its dyeing cost read from an import source.
type ParsedColorCost struct {
	ColorName string  `json:"color_name"`
	Cost      float64 `json:"cost"`
}

type ImportDyeingCostsRequest struct {
	TinturariaID uuid.UUID `json:"tinturaria_id" validate:"required"`
	ProductID    uuid.UUID `json:"product_id" validate:"required"`
	Text         string    `json:"text"`
	// Commit writes the parsed rows; otherwise only the preview is returned.
	Commit bool `json:"commit"`
}

type ImportResult struct {
	Parsed    []ParsedColorCost `json:"parsed"`
	Imported  int               `json:"imported"`
	Created   int               `json:"created"`
	Skipped   int               `json:"skipped"`
	Errors    []string          `json:"errors,omitempty"`
	Committed bool              `json:"committed"`
}

// ParseDyeingText reads the spreadsheet text pasted from the tinturaria
// price lists. Each block, separated by a blank line, names the color in
// the last tab column of its first line and carries the cost in the fifth
// column of the line starting with "Tinturaria".
func ParseDyeingText(text string) []ParsedColorCost {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []ParsedColorCost
	for _, block := range blankLineSplit.Split(text, -1) {
		var lines []string
		for _, l := range strings.Split(block, "\n") {
			if strings.TrimSpace(l) != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) < 2 {
			continue
		}

		header := strings.Split(lines[0], "\t")
		name := strings.TrimSpace(header[len(header)-1])
		upper := strings.ToUpper(name)
		if name == "" || upper == "CUSTO" || upper == "VALOR" || strings.Contains(name, "R$") {
			continue
		}

		for _, l := range lines[1:] {
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(l)), "tinturaria") {
				continue
			}
			parts := strings.Split(l, "\t")
			if len(parts) < 5 {
				break
			}
			cost, err := utils.ParseBRL(parts[4])
			if err != nil || cost <= 0 {
				break
			}
			out = append(out, ParsedColorCost{ColorName: name, Cost: cost})
			break
		}
	}
	return out
}

// ParseDyeingXLSX reads the first sheet of a workbook with a COR column and
// a CUSTO (or VALOR) column. The header row is searched in the first ten rows.
func ParseDyeingXLSX(data []byte) ([]ParsedColorCost, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, newValidationError("file", "not a valid xlsx file")
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, newValidationError("file", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, newValidationError("file", fmt.Sprintf("failed to read sheet %s", sheetName))
	}

	headerRow, colorCol, costCol := -1, -1, -1
	for i := 0; i < len(rows) && i < 10; i++ {
		c, k := -1, -1
		for j, cell := range rows[i] {
			switch strings.ToUpper(strings.TrimSpace(cell)) {
			case "COR", "CORES", "COLOR":
				c = j
			case "CUSTO", "VALOR", "PRECO", "PREÇO":
				k = j
			}
		}
		if c >= 0 && k >= 0 {
			headerRow, colorCol, costCol = i, c, k
			break
		}
	}
	if headerRow < 0 {
		return nil, newValidationError("file", "header with COR and CUSTO columns not found")
	}

	var out []ParsedColorCost
	for _, row := range rows[headerRow+1:] {
		if colorCol >= len(row) || costCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[colorCol])
		if name == "" {
			continue
		}
		cost, err := utils.ParseBRL(row[costCol])
		if err != nil || cost <= 0 {
			continue
		}
		out = append(out, ParsedColorCost{ColorName: name, Cost: cost})
	}

	logrus.WithFields(logrus.Fields{
		"sheet":  sheetName,
		"parsed": len(out),
	}).Info("dyeing cost workbook parsed")
	return out, nil
}

// ImportText parses req.Text and, when req.Commit is set, writes the rows.
func (s *DyeingCostService) ImportText(req *ImportDyeingCostsRequest) (*ImportResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	parsed := ParseDyeingText(req.Text)
	return s.importParsed(req.TinturariaID, req.ProductID, parsed, req.Commit)
}

// ImportXLSX parses a workbook and, when commit is set, writes the rows.
func (s *DyeingCostService) ImportXLSX(tinturariaID, productID uuid.UUID, data []byte, commit bool) (*ImportResult, error) {
	parsed, err := ParseDyeingXLSX(data)
	if err != nil {
		return nil, err
	}
	return s.importParsed(tinturariaID, productID, parsed, commit)
}

func (s *DyeingCostService) importParsed(tinturariaID, productID uuid.UUID, parsed []ParsedColorCost, commit bool) (*ImportResult, error) {
	if len(parsed) == 0 {
		return nil, &ValidationError{Code: "import_empty", Field: "text", Message: "no colors found in the input", Key: "dyeing_cost.import_empty"}
	}
	if err := s.ensurePair(tinturariaID, productID); err != nil {
		return nil, err
	}

	result := &ImportResult{Parsed: parsed}
	if !commit {
		return result, nil
	}

	for _, item := range parsed {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			color, created, err := s.colors.FindOrCreateByName(tx, item.ColorName)
			if err != nil {
				return err
			}
			if err := s.upsert(tx, tinturariaID, productID, color.ID, item.Cost); err != nil {
				return err
			}
			if created {
				result.Created++
			}
			return nil
		})
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.ColorName, err))
			continue
		}
		result.Imported++
	}
	result.Committed = true

	logrus.WithFields(logrus.Fields{
		"tinturaria_id": tinturariaID,
		"product_id":    productID,
		"imported":      result.Imported,
		"created":       result.Created,
		"skipped":       result.Skipped,
	}).Info("dyeing costs imported")
	return result, nil
}
