package models

import "fmt"

// VehicleClass selects the row of the price table.
type VehicleClass int

const (
	VehicleCompact VehicleClass = iota
	VehicleSedan
	VehicleSUV

	VehicleClassCount = 3
)

var vehicleClassNames = [VehicleClassCount]string{"compact", "sedan", "suv"}

func (v VehicleClass) Valid() bool {
	return v >= 0 && v < VehicleClassCount
}

func (v VehicleClass) String() string {
	if !v.Valid() {
		return fmt.Sprintf("vehicle(%d)", int(v))
	}
	return vehicleClassNames[v]
}

func ParseVehicleClass(raw string) (VehicleClass, bool) {
	for i, name := range vehicleClassNames {
		if name == raw {
			return VehicleClass(i), true
		}
	}
	return 0, false
}

// PackageTier selects the column of the price table.
type PackageTier int

const (
	TierBasic PackageTier = iota
	TierSuper
	TierDeluxe

	PackageTierCount = 3
)

var packageTierNames = [PackageTierCount]string{"basic", "super", "deluxe"}

func (p PackageTier) Valid() bool {
	return p >= 0 && p < PackageTierCount
}

func (p PackageTier) String() string {
	if !p.Valid() {
		return fmt.Sprintf("tier(%d)", int(p))
	}
	return packageTierNames[p]
}

func ParsePackageTier(raw string) (PackageTier, bool) {
	for i, name := range packageTierNames {
		if name == raw {
			return PackageTier(i), true
		}
	}
	return 0, false
}

// AddOnID identifies an optional upsell service.
type AddOnID int

const (
	AddOnInterior AddOnID = iota
	AddOnCeramic
	AddOnPolish
	AddOnEngine

	AddOnCount = 4
)

var addOnNames = [AddOnCount]string{"interior", "ceramic", "polish", "engine"}

func (a AddOnID) Valid() bool {
	return a >= 0 && a < AddOnCount
}

func (a AddOnID) String() string {
	if !a.Valid() {
		return fmt.Sprintf("addon(%d)", int(a))
	}
	return addOnNames[a]
}

func ParseAddOn(raw string) (AddOnID, bool) {
	for i, name := range addOnNames {
		if name == raw {
			return AddOnID(i), true
		}
	}
	return 0, false
}

func VehicleClasses() []VehicleClass {
	return []VehicleClass{VehicleCompact, VehicleSedan, VehicleSUV}
}

func PackageTiers() []PackageTier {
	return []PackageTier{TierBasic, TierSuper, TierDeluxe}
}

func AddOns() []AddOnID {
	return []AddOnID{AddOnInterior, AddOnCeramic, AddOnPolish, AddOnEngine}
}
