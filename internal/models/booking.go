package models

import (
	"fmt"
	"time"
)

// ServicePackage is the package picked on the service step of the booking form.
type ServicePackage int

const (
	PackageNone ServicePackage = iota
	PackageExterior
	PackageBasic
	PackageSuper
)

type servicePackageInfo struct {
	id          string
	name        string
	priceCents  int64
	description string
}

var servicePackages = [...]servicePackageInfo{
	PackageNone: {},
	PackageExterior: {
		id:          "exterior",
		name:        "Exterior Package",
		priceCents:  4999,
		description: "Exterior wash, tire shine, window cleaning, and wax protection.",
	},
	PackageBasic: {
		id:          "basic",
		name:        "Basic Package",
		priceCents:  8999,
		description: "Exterior wash plus interior vacuum, dashboard cleaning, and floor mat washing.",
	},
	PackageSuper: {
		id:          "super",
		name:        "Super Package",
		priceCents:  14999,
		description: "Complete interior and exterior detailing with premium wax, leather conditioning, and fabric protection.",
	},
}

func ServicePackages() []ServicePackage {
	return []ServicePackage{PackageExterior, PackageBasic, PackageSuper}
}

func (p ServicePackage) Valid() bool {
	return p >= PackageExterior && p <= PackageSuper
}

func (p ServicePackage) String() string {
	if p == PackageNone {
		return ""
	}
	if !p.Valid() {
		return fmt.Sprintf("package(%d)", int(p))
	}
	return servicePackages[p].id
}

func (p ServicePackage) DisplayName() string {
	if !p.Valid() {
		return ""
	}
	return servicePackages[p].name
}

func (p ServicePackage) Description() string {
	if !p.Valid() {
		return ""
	}
	return servicePackages[p].description
}

// PriceCents is the advertised package price in cents.
func (p ServicePackage) PriceCents() int64 {
	if !p.Valid() {
		return 0
	}
	return servicePackages[p].priceCents
}

func ParseServicePackage(raw string) (ServicePackage, error) {
	if raw == "" {
		return PackageNone, nil
	}
	for _, p := range ServicePackages() {
		if servicePackages[p].id == raw {
			return p, nil
		}
	}
	return PackageNone, fmt.Errorf("unknown service package %q", raw)
}

func (p ServicePackage) MarshalText() ([]byte, error) {
	if p != PackageNone && !p.Valid() {
		return nil, fmt.Errorf("invalid service package %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *ServicePackage) UnmarshalText(text []byte) error {
	parsed, err := ParseServicePackage(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// BookingState accumulates the form fields across steps.
type BookingState struct {
	Location       string         `json:"location"`
	Building       string         `json:"building"`
	ParkingSpot    string         `json:"parking_spot"`
	ServicePackage ServicePackage `json:"service_package"`
	Date           *Date          `json:"date"`
	Time           string         `json:"time"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	Notes          string         `json:"notes"`
}

// BookingPayload is the finished booking handed to the submission collaborator.
type BookingPayload struct {
	SessionID      string         `json:"session_id,omitempty"`
	Location       string         `json:"location"`
	Building       string         `json:"building"`
	ParkingSpot    string         `json:"parking_spot"`
	ServicePackage ServicePackage `json:"service_package"`
	Date           Date           `json:"date"`
	Time           string         `json:"time"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	Notes          string         `json:"notes"`
	SubmittedAt    time.Time      `json:"submitted_at"`
}

// BookingSession is the stored draft of one visitor's booking.
type BookingSession struct {
	ID        string       `json:"id"`
	Step      Step         `json:"step"`
	State     BookingState `json:"state"`
	Completed bool         `json:"completed"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
