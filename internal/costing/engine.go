// internal/costing/engine.go
package costing

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

type YarnClass string

const (
	YarnClassMain     YarnClass = "main"
	YarnClassElastane YarnClass = "elastane"
	YarnClassFreight  YarnClass = "freight"
)

// ClassifyYarn derives the class from the yarn type name. Elastane yarns are
// fixed in a composition, FRETE is the freight pseudo-type, everything else
// (polyester, polyamide, cotton, viscose) can replace any other main yarn.
func ClassifyYarn(name string) YarnClass {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "frete":
		return YarnClassFreight
	case strings.HasPrefix(n, "elastano"), strings.HasPrefix(n, "elastane"):
		return YarnClassElastane
	default:
		return YarnClassMain
	}
}

type ProductInfo struct {
	ID               uuid.UUID `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Composition      string    `json:"composition"`
	WeightGSM        float64   `json:"weight_gsm"`
	WidthCM          float64   `json:"width_cm"`
	YieldMKg         float64   `json:"yield_m_kg"`
	EfficiencyFactor float64   `json:"efficiency_factor"`
	WeavingCost      float64   `json:"weaving_cost"`
	Active           bool      `json:"active"`
}

type TinturariaInfo struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	ConversionFactor float64   `json:"conversion_factor"`
}

type YarnRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CompositionLine struct {
	Yarn       YarnRef `json:"yarn"`
	Proportion float64 `json:"proportion"`
}

type DyeingRate struct {
	ColorName string  `json:"color_name"`
	Cost      float64 `json:"cost"`
}

type Entry struct {
	ColorID  uuid.UUID `json:"color_id"`
	Quantity float64   `json:"quantity"`
}

// Input is everything one calculation reads. It is assembled by the caller
// from reference data priced at PricingDate.
type Input struct {
	Product     ProductInfo
	Tinturaria  TinturariaInfo
	Composition []CompositionLine
	// Substitutions maps an original main yarn id to its replacement.
	Substitutions map[uuid.UUID]YarnRef
	// YarnPrices holds the price per kg for PricingDate, keyed by yarn type id.
	YarnPrices  map[uuid.UUID]float64
	FreightCost float64
	// DyeingCosts holds the orderable colors of (tinturaria, product).
	DyeingCosts      map[uuid.UUID]DyeingRate
	Entries          []Entry
	ConversionFactor float64
	SpecialDiscount  float64
	PricingDate      string
}

type YarnLine struct {
	YarnTypeID   uuid.UUID `json:"yarn_type_id"`
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name,omitempty"`
	Proportion   float64   `json:"proportion"`
	Price        float64   `json:"price"`
	Contribution float64   `json:"contribution"`
}

type ColorLine struct {
	ColorID       uuid.UUID `json:"color_id"`
	ColorName     string    `json:"color_name"`
	Quantity      float64   `json:"quantity"`
	DyeingCost    float64   `json:"dyeing_cost"`
	PerColorExtra float64   `json:"per_color_extra"`
	RawCost       float64   `json:"raw_cost"`
	CostPerKg     float64   `json:"cost_per_kg"`
	LineTotal     float64   `json:"line_total"`
}

type Totals struct {
	TotalKg          float64 `json:"total_kg"`
	TotalValue       float64 `json:"total_value"`
	AverageCostPerKg float64 `json:"average_cost_per_kg"`
}

// Breakdown is the full result of a calculation. Once saved it is the quote
// snapshot, so it must carry every value needed to display it again.
type Breakdown struct {
	PricingDate      string               `json:"pricing_date"`
	Product          ProductInfo          `json:"product"`
	Tinturaria       TinturariaInfo       `json:"tinturaria"`
	Yarns            []YarnLine           `json:"yarns"`
	TotalYarnCost    float64              `json:"total_yarn_cost"`
	WeavingCost      float64              `json:"weaving_cost"`
	FreightCost      float64              `json:"freight_cost"`
	ConversionFactor float64              `json:"conversion_factor"`
	SpecialDiscount  float64              `json:"special_discount"`
	EfficiencyFactor float64              `json:"efficiency_factor"`
	Colors           []ColorLine          `json:"colors"`
	Totals           Totals               `json:"totals"`
	MissingPrice     *MissingPriceWarning `json:"missing_price,omitempty"`
}

// Calculate runs the cost formula. It never touches storage.
func Calculate(in Input) (*Breakdown, error) {
	if in.Product.ID == uuid.Nil || in.Tinturaria.ID == uuid.Nil {
		return nil, newValidationError(CodeSelectionRequired, "product and tinturaria must be selected")
	}
	if !in.Product.Active {
		return nil, newValidationError(CodeProductInactive, "product is not active", in.Product.Code)
	}
	if in.Product.EfficiencyFactor <= 0 {
		return nil, newValidationError(CodeInvalidEfficiencyFactor, "efficiency factor must be greater than zero", in.Product.Code)
	}

	entries, err := normalizeEntries(in.Entries, in.DyeingCosts)
	if err != nil {
		return nil, err
	}

	yarns, err := applySubstitutions(in.Composition, in.Substitutions)
	if err != nil {
		return nil, err
	}

	b := &Breakdown{
		PricingDate:      in.PricingDate,
		Product:          in.Product,
		Tinturaria:       in.Tinturaria,
		WeavingCost:      in.Product.WeavingCost,
		FreightCost:      in.FreightCost,
		ConversionFactor: in.ConversionFactor,
		SpecialDiscount:  in.SpecialDiscount,
		EfficiencyFactor: in.Product.EfficiencyFactor,
	}

	var missing []string
	for _, y := range yarns {
		price := in.YarnPrices[y.YarnTypeID]
		if price == 0 && y.Proportion > 0 {
			missing = append(missing, y.Name)
		}
		y.Price = price
		y.Contribution = price * y.Proportion
		b.TotalYarnCost += y.Contribution
		b.Yarns = append(b.Yarns, y)
	}
	if len(missing) > 0 {
		b.MissingPrice = &MissingPriceWarning{Yarns: missing}
	}

	for _, e := range entries {
		rate := in.DyeingCosts[e.ColorID]
		line := ColorLine{
			ColorID:    e.ColorID,
			ColorName:  rate.ColorName,
			Quantity:   e.Quantity,
			DyeingCost: rate.Cost,
		}
		line.PerColorExtra = rate.Cost + in.ConversionFactor + in.SpecialDiscount
		line.RawCost = b.TotalYarnCost + b.WeavingCost + line.PerColorExtra + b.FreightCost
		line.CostPerKg = line.RawCost / b.EfficiencyFactor
		line.LineTotal = line.CostPerKg * line.Quantity
		b.Colors = append(b.Colors, line)
	}

	b.Totals = SumColors(b.Colors)
	return b, nil
}

// SumColors aggregates color lines. Saved quotes are re-totalled with it, so
// the result depends only on the lines themselves.
func SumColors(lines []ColorLine) Totals {
	var t Totals
	for _, l := range lines {
		t.TotalKg += l.Quantity
		t.TotalValue += l.LineTotal
	}
	if t.TotalKg > 0 {
		t.AverageCostPerKg = t.TotalValue / t.TotalKg
	}
	return t
}

// Recompute returns the totals of a stored breakdown from its color lines.
func (b *Breakdown) Recompute() Totals {
	return SumColors(b.Colors)
}

// Warnings returns the missing price yarn names, or nil.
func (b *Breakdown) Warnings() []string {
	if b.MissingPrice == nil {
		return nil
	}
	return b.MissingPrice.Yarns
}

// normalizeEntries drops blank rows, merges repeated colors in first-seen
// order and checks every color is orderable.
func normalizeEntries(raw []Entry, rates map[uuid.UUID]DyeingRate) ([]Entry, error) {
	var (
		out         []Entry
		index       = make(map[uuid.UUID]int)
		negative    []string
		unavailable []string
	)

	for _, e := range raw {
		if e.ColorID == uuid.Nil || e.Quantity == 0 {
			continue
		}
		if e.Quantity < 0 {
			negative = append(negative, colorLabel(e.ColorID, rates))
			continue
		}
		if _, ok := rates[e.ColorID]; !ok {
			unavailable = append(unavailable, e.ColorID.String())
			continue
		}
		if i, ok := index[e.ColorID]; ok {
			out[i].Quantity += e.Quantity
			continue
		}
		index[e.ColorID] = len(out)
		out = append(out, e)
	}

	if len(negative) > 0 {
		return nil, newValidationError(CodeInvalidQuantity, "quantity must be greater than zero", negative...)
	}
	if len(unavailable) > 0 {
		sort.Strings(unavailable)
		return nil, newValidationError(CodeColorUnavailable, "color has no dyeing cost for this tinturaria and product", unavailable...)
	}
	if len(out) == 0 {
		return nil, newValidationError(CodeNoEntries, "at least one color with quantity is required")
	}
	return out, nil
}

func colorLabel(id uuid.UUID, rates map[uuid.UUID]DyeingRate) string {
	if r, ok := rates[id]; ok && r.ColorName != "" {
		return r.ColorName
	}
	return id.String()
}

func applySubstitutions(composition []CompositionLine, subs map[uuid.UUID]YarnRef) ([]YarnLine, error) {
	used := make(map[uuid.UUID]bool, len(subs))
	lines := make([]YarnLine, 0, len(composition))

	for _, c := range composition {
		line := YarnLine{
			YarnTypeID: c.Yarn.ID,
			Name:       c.Yarn.Name,
			Proportion: c.Proportion,
		}

		if repl, ok := subs[c.Yarn.ID]; ok && repl.ID != c.Yarn.ID {
			if ClassifyYarn(c.Yarn.Name) != YarnClassMain {
				return nil, newValidationError(CodeInvalidSubstitution, "only main yarns can be replaced", c.Yarn.Name)
			}
			if ClassifyYarn(repl.Name) != YarnClassMain {
				return nil, newValidationError(CodeInvalidSubstitution, "replacement must be a main yarn", repl.Name)
			}
			line.YarnTypeID = repl.ID
			line.Name = repl.Name
			line.OriginalName = c.Yarn.Name
		}
		used[c.Yarn.ID] = true
		lines = append(lines, line)
	}

	for id := range subs {
		if !used[id] {
			return nil, newValidationError(CodeInvalidSubstitution, "yarn is not part of the product composition", id.String())
		}
	}
	return lines, nil
}
