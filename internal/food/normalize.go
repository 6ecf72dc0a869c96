package food

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/meltforce/flexlog/internal/models"
)

// FDC nutrient numbers.
const (
	nutrientEnergyKcal = "208"
	nutrientProtein    = "203"
	nutrientCarbs      = "205"
	nutrientFat        = "204"
)

const per100g = "100g"

type fdcSearchResponse struct {
	Foods []fdcFood `json:"foods"`
}

type fdcFood struct {
	FdcID         json.Number   `json:"fdcId"`
	Description   *string       `json:"description"`
	BrandOwner    *string       `json:"brandOwner"`
	FoodNutrients []fdcNutrient `json:"foodNutrients"`
}

type fdcNutrient struct {
	NutrientNumber string   `json:"nutrientNumber"`
	Value          *float64 `json:"value"`
}

// nutrient returns the first value reported under number.
func nutrient(nutrients []fdcNutrient, number string) float64 {
	for _, n := range nutrients {
		if n.NutrientNumber == number {
			if n.Value == nil {
				return 0
			}
			return *n.Value
		}
	}
	return 0
}

// NormalizeFDCSearch converts a FoodData Central /foods/search response into
// per-100g food results.
func NormalizeFDCSearch(data []byte) ([]models.FoodResult, error) {
	var resp fdcSearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding fdc search response: %w", err)
	}

	out := make([]models.FoodResult, 0, len(resp.Foods))
	for _, f := range resp.Foods {
		name := "Food"
		if f.Description != nil {
			name = *f.Description
		}
		var sourceID *string
		if id := f.FdcID.String(); id != "" && id != "0" {
			sourceID = &id
		}
		per := per100g
		out = append(out, models.FoodResult{
			Name:     name,
			Brand:    f.BrandOwner,
			Calories: nutrient(f.FoodNutrients, nutrientEnergyKcal),
			ProteinG: nutrient(f.FoodNutrients, nutrientProtein),
			CarbsG:   nutrient(f.FoodNutrients, nutrientCarbs),
			FatG:     nutrient(f.FoodNutrients, nutrientFat),
			Source:   models.FoodSourceFDC,
			SourceID: sourceID,
			Unit:     per100g,
			Per:      &per,
		})
	}
	return out, nil
}

type offProductResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ID            looseString                `json:"id"`
	ProductName   string                     `json:"product_name"`
	ProductNameEn string                     `json:"product_name_en"`
	GenericName   string                     `json:"generic_name"`
	Brands        looseString                `json:"brands"`
	Nutriments    map[string]json.RawMessage `json:"nutriments"`
}

// looseString accepts a JSON string or number.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(b)
	return nil
}

func (s looseString) ptr() *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}

// nutriment looks up key, reporting whether it is present and non-null.
// OFF sends most values as numbers but some as numeric strings; anything
// unparseable counts as 0.
func (p offProduct) nutriment(key string) (float64, bool) {
	raw, ok := p.Nutriments[key]
	if !ok {
		return 0, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			return v, true
		}
	}
	return 0, true
}

// per100gOrServing prefers the <name>_100g value and falls back to
// <name>_serving.
func (p offProduct) per100gOrServing(name string) float64 {
	if v, ok := p.nutriment(name + "_100g"); ok {
		return v
	}
	v, _ := p.nutriment(name + "_serving")
	return v
}

// NormalizeOFFProduct converts an Open Food Facts v2 product response. It
// returns nil when the product was not found.
func NormalizeOFFProduct(data []byte, barcode string) (*models.FoodResult, error) {
	var resp offProductResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding off product response: %w", err)
	}
	if resp.Status != 1 {
		return nil, nil
	}
	p := resp.Product

	name := "Product"
	for _, candidate := range []string{p.ProductName, p.ProductNameEn, p.GenericName} {
		if candidate != "" {
			name = candidate
			break
		}
	}

	unit := "serving"
	if _, ok := p.nutriment("energy-kcal_100g"); ok {
		unit = per100g
	}
	per := unit
	code := barcode

	return &models.FoodResult{
		Name:     name,
		Brand:    p.Brands.ptr(),
		Calories: p.per100gOrServing("energy-kcal"),
		ProteinG: p.per100gOrServing("proteins"),
		CarbsG:   p.per100gOrServing("carbohydrates"),
		FatG:     p.per100gOrServing("fat"),
		Source:   models.FoodSourceOFF,
		SourceID: p.ID.ptr(),
		Barcode:  &code,
		Unit:     unit,
		Per:      &per,
	}, nil
}
