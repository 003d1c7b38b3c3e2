// Package pricing implements the detailing price calculator.
//
// Prices are whole dollars. The table is indexed by enum ordinal, so every
// in-range selection has a price and only out-of-range values can fail.
package pricing

import (
	"errors"
	"fmt"
	"sort"

	"carspa/internal/models"
)

// ErrInvalidSelection is returned for a vehicle class, package tier or add-on
// outside the known set.
var ErrInvalidSelection = errors.New("invalid pricing selection")

var baseTable = [models.VehicleClassCount][models.PackageTierCount]int{
	models.VehicleCompact: {models.TierBasic: 27, models.TierSuper: 45, models.TierDeluxe: 200},
	models.VehicleSedan:   {models.TierBasic: 35, models.TierSuper: 55, models.TierDeluxe: 235},
	models.VehicleSUV:     {models.TierBasic: 42, models.TierSuper: 70, models.TierDeluxe: 280},
}

type addOnInfo struct {
	name  string
	price [models.VehicleClassCount]int
}

var addOnTable = [models.AddOnCount]addOnInfo{
	models.AddOnInterior: {name: "Interior Detailing", price: [models.VehicleClassCount]int{30, 35, 35}},
	models.AddOnCeramic:  {name: "Ceramic Coating (Windshield)", price: [models.VehicleClassCount]int{60, 60, 60}},
	models.AddOnPolish:   {name: "Exterior Polish", price: [models.VehicleClassCount]int{40, 50, 60}},
	models.AddOnEngine:   {name: "Engine Cleaning", price: [models.VehicleClassCount]int{35, 45, 55}},
}

// BasePrice returns the package price for a vehicle class.
func BasePrice(v models.VehicleClass, p models.PackageTier) (int, error) {
	if !v.Valid() {
		return 0, fmt.Errorf("%w: vehicle class %s", ErrInvalidSelection, v)
	}
	if !p.Valid() {
		return 0, fmt.Errorf("%w: package tier %s", ErrInvalidSelection, p)
	}
	return baseTable[v][p], nil
}

// AddOnPrice returns the incremental price of an add-on for a vehicle class.
func AddOnPrice(a models.AddOnID, v models.VehicleClass) (int, error) {
	if !a.Valid() {
		return 0, fmt.Errorf("%w: add-on %s", ErrInvalidSelection, a)
	}
	if !v.Valid() {
		return 0, fmt.Errorf("%w: vehicle class %s", ErrInvalidSelection, v)
	}
	return addOnTable[a].price[v], nil
}

// AddOnName is the human readable add-on label.
func AddOnName(a models.AddOnID) string {
	if !a.Valid() {
		return a.String()
	}
	return addOnTable[a].name
}

// Estimate sums the base price and every distinct add-on. The order of addOns
// does not matter and repeated ids are counted once.
func Estimate(v models.VehicleClass, p models.PackageTier, addOns []models.AddOnID) (int, error) {
	q, err := NewQuote(v, p, addOns)
	if err != nil {
		return 0, err
	}
	return q.Total, nil
}

// EstimateNames parses the selection as sent by the calculator and estimates it.
func EstimateNames(vehicle, tier string, addOns []string) (int, error) {
	q, err := QuoteNames(vehicle, tier, addOns)
	if err != nil {
		return 0, err
	}
	return q.Total, nil
}

// Line is one row of an itemized quote.
type Line struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Price int    `json:"price"`
}

// Quote is an itemized estimate. Lines start with the package, then add-ons in
// table order.
type Quote struct {
	VehicleClass models.VehicleClass `json:"-"`
	PackageTier  models.PackageTier  `json:"-"`
	Lines        []Line              `json:"lines"`
	Total        int                 `json:"total"`
}

func NewQuote(v models.VehicleClass, p models.PackageTier, addOns []models.AddOnID) (*Quote, error) {
	base, err := BasePrice(v, p)
	if err != nil {
		return nil, err
	}

	distinct := make([]models.AddOnID, 0, len(addOns))
	seen := [models.AddOnCount]bool{}
	for _, a := range addOns {
		if !a.Valid() {
			return nil, fmt.Errorf("%w: add-on %s", ErrInvalidSelection, a)
		}
		if seen[a] {
			continue
		}
		seen[a] = true
		distinct = append(distinct, a)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	q := &Quote{
		VehicleClass: v,
		PackageTier:  p,
		Lines:        make([]Line, 0, len(distinct)+1),
		Total:        base,
	}
	q.Lines = append(q.Lines, Line{Code: p.String(), Label: fmt.Sprintf("%s package (%s)", p, v), Price: base})
	for _, a := range distinct {
		price := addOnTable[a].price[v]
		q.Lines = append(q.Lines, Line{Code: a.String(), Label: addOnTable[a].name, Price: price})
		q.Total += price
	}
	return q, nil
}

func QuoteNames(vehicle, tier string, addOns []string) (*Quote, error) {
	v, ok := models.ParseVehicleClass(vehicle)
	if !ok {
		return nil, fmt.Errorf("%w: unknown vehicle class %q", ErrInvalidSelection, vehicle)
	}
	p, ok := models.ParsePackageTier(tier)
	if !ok {
		return nil, fmt.Errorf("%w: unknown package tier %q", ErrInvalidSelection, tier)
	}
	ids := make([]models.AddOnID, 0, len(addOns))
	for _, raw := range addOns {
		a, ok := models.ParseAddOn(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown add-on %q", ErrInvalidSelection, raw)
		}
		ids = append(ids, a)
	}
	return NewQuote(v, p, ids)
}
