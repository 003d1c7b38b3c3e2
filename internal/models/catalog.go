package models

// Area is a served neighbourhood offered on the location step.
type Area struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Address     string `yaml:"address" json:"address"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// TimeSlot is a bookable start time; Value is what the form stores.
type TimeSlot struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type Business struct {
	Name  string `yaml:"name" json:"name"`
	Phone string `yaml:"phone" json:"phone"`
	Email string `yaml:"email" json:"email"`
}

// Catalog is the static content the booking form and calculator are built from.
type Catalog struct {
	Business  Business   `yaml:"business" json:"business"`
	Areas     []Area     `yaml:"areas" json:"areas"`
	TimeSlots []TimeSlot `yaml:"time_slots" json:"time_slots"`
}

// SlotValues lists the stored values of the offered time slots.
func (c *Catalog) SlotValues() []string {
	if c == nil {
		return nil
	}
	values := make([]string, 0, len(c.TimeSlots))
	for _, s := range c.TimeSlots {
		values = append(values, s.Value)
	}
	return values
}
