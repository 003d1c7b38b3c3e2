package pricing

import "carspa/internal/models"

// TableView is a copy of the price table keyed by names, for display and export.
type TableView struct {
	Vehicles []string   `json:"vehicles"`
	Tiers    []string   `json:"tiers"`
	Base     []BaseRow  `json:"base"`
	AddOns   []AddOnRow `json:"add_ons"`
}

type BaseRow struct {
	Vehicle string         `json:"vehicle"`
	Prices  map[string]int `json:"prices"`
}

type AddOnRow struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Prices map[string]int `json:"prices"`
}

// Table returns the current price table.
func Table() TableView {
	view := TableView{}
	for _, v := range models.VehicleClasses() {
		view.Vehicles = append(view.Vehicles, v.String())
	}
	for _, p := range models.PackageTiers() {
		view.Tiers = append(view.Tiers, p.String())
	}

	for _, v := range models.VehicleClasses() {
		row := BaseRow{Vehicle: v.String(), Prices: make(map[string]int, models.PackageTierCount)}
		for _, p := range models.PackageTiers() {
			row.Prices[p.String()] = baseTable[v][p]
		}
		view.Base = append(view.Base, row)
	}

	for _, a := range models.AddOns() {
		row := AddOnRow{ID: a.String(), Name: addOnTable[a].name, Prices: make(map[string]int, models.VehicleClassCount)}
		for _, v := range models.VehicleClasses() {
			row.Prices[v.String()] = addOnTable[a].price[v]
		}
		view.AddOns = append(view.AddOns, row)
	}
	return view
}
