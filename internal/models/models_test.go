package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	t.Run("ParseAndFormat", func(t *testing.T) {
		d, err := ParseDate("2026-10-25")
		require.NoError(t, err)
		assert.Equal(t, NewDate(2026, time.October, 25), d)
		assert.Equal(t, "2026-10-25", d.String())
		assert.Equal(t, time.Sunday, d.Weekday())
	})

	t.Run("ParseInvalid", func(t *testing.T) {
		_, err := ParseDate("25.10.2026")
		assert.Error(t, err)
	})

	t.Run("Before", func(t *testing.T) {
		a := NewDate(2026, time.October, 19)
		b := NewDate(2026, time.October, 20)
		assert.True(t, a.Before(b))
		assert.False(t, b.Before(a))
		assert.False(t, a.Before(a))
	})

	t.Run("AddDays", func(t *testing.T) {
		d := NewDate(2026, time.October, 30)
		assert.Equal(t, NewDate(2026, time.November, 2), d.AddDays(3))
		assert.Equal(t, NewDate(2026, time.September, 30), d.AddDays(-30))
	})

	t.Run("DateOfUsesLocation", func(t *testing.T) {
		loc := time.FixedZone("EDT", -4*60*60)
		instant := time.Date(2026, time.October, 20, 2, 0, 0, 0, time.UTC)
		assert.Equal(t, NewDate(2026, time.October, 19), DateOf(instant.In(loc)))
	})

	t.Run("JSON", func(t *testing.T) {
		d := NewDate(2026, time.November, 2)
		raw, err := json.Marshal(struct {
			Date *Date `json:"date"`
		}{Date: &d})
		require.NoError(t, err)
		assert.JSONEq(t, `{"date":"2026-11-02"}`, string(raw))

		var decoded struct {
			Date *Date `json:"date"`
		}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.NotNil(t, decoded.Date)
		assert.Equal(t, d, *decoded.Date)
	})
}

func TestStep(t *testing.T) {
	assert.Equal(t, []Step{StepLocation, StepService, StepDateTime, StepContact, StepReview}, Steps())
	for i, s := range Steps() {
		assert.Equal(t, i+1, s.Number())
		parsed, err := ParseStep(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStep("payment")
	assert.Error(t, err)
	assert.False(t, Step(0).Valid())
	assert.Equal(t, "step(9)", Step(9).String())

	_, err = Step(0).MarshalText()
	assert.Error(t, err)
}

func TestServicePackage(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		p, err := ParseServicePackage("super")
		require.NoError(t, err)
		assert.Equal(t, PackageSuper, p)

		p, err = ParseServicePackage("")
		require.NoError(t, err)
		assert.Equal(t, PackageNone, p)

		_, err = ParseServicePackage("deluxe")
		assert.Error(t, err)
	})

	t.Run("Info", func(t *testing.T) {
		assert.Equal(t, "Exterior Package", PackageExterior.DisplayName())
		assert.Equal(t, int64(8999), PackageBasic.PriceCents())
		assert.Equal(t, int64(0), PackageNone.PriceCents())
		assert.False(t, PackageNone.Valid())
	})

	t.Run("JSON", func(t *testing.T) {
		state := BookingState{ServicePackage: PackageBasic}
		raw, err := json.Marshal(state)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"service_package":"basic"`)

		var decoded BookingState
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, PackageBasic, decoded.ServicePackage)
	})
}

func TestPricingEnums(t *testing.T) {
	for _, v := range VehicleClasses() {
		parsed, ok := ParseVehicleClass(v.String())
		assert.True(t, ok)
		assert.Equal(t, v, parsed)
	}
	for _, p := range PackageTiers() {
		parsed, ok := ParsePackageTier(p.String())
		assert.True(t, ok)
		assert.Equal(t, p, parsed)
	}
	for _, a := range AddOns() {
		parsed, ok := ParseAddOn(a.String())
		assert.True(t, ok)
		assert.Equal(t, a, parsed)
	}

	_, ok := ParseVehicleClass("truck")
	assert.False(t, ok)
	_, ok = ParsePackageTier("exterior")
	assert.False(t, ok)
	_, ok = ParseAddOn("wax")
	assert.False(t, ok)
	assert.False(t, VehicleClass(-1).Valid())
	assert.False(t, AddOnID(AddOnCount).Valid())
}

func TestCatalogSlotValues(t *testing.T) {
	c := &Catalog{TimeSlots: []TimeSlot{{Value: "9:00", Label: "9:00 AM"}, {Value: "13:00", Label: "1:00 PM"}}}
	assert.Equal(t, []string{"9:00", "13:00"}, c.SlotValues())

	var none *Catalog
	assert.Nil(t, none.SlotValues())
}
