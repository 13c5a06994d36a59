package models

import (
	"time"

	"gorm.io/datatypes"

	"searchkit/searchable"
)

// Asset repräsentiert einen Eintrag im Gerätekatalog.
type Asset struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `json:"name" gorm:"index;not null"`
	Make        string `json:"make,omitempty" gorm:"index"`
	ModelName   string `json:"model_name,omitempty" gorm:"column:model_name"`
	Location    string `json:"location,omitempty" gorm:"index"`
	Description string `json:"description,omitempty" gorm:"type:text"`

	// Interne Felder, nicht Teil der API-Antwort und nicht durchsuchbar.
	SerialNumber  string `json:"-" gorm:"index"`
	InternalNotes string `json:"-" gorm:"type:text"`

	// Freie Zusatzattribute; jsonb lässt sich nicht per LIKE vergleichen.
	Attributes datatypes.JSON `json:"attributes,omitempty" gorm:"type:jsonb"`

	CategoryID *uint     `json:"category_id,omitempty" gorm:"index"`
	Category   *Category `json:"category,omitempty"`
	Tags       []Tag     `json:"tags,omitempty"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Asset) TableName() string {
	return "assets"
}

// SearchColumns deklariert die eigenen Suchspalten explizit; die
// automatische Spaltenermittlung würde auch jsonb- und Zahlspalten treffen.
func (Asset) SearchColumns() []string {
	return []string{"name", "location", "description"}
}

// SearchConcats durchsucht Hersteller und Modell als einen Ausdruck,
// z.B. "dell latitude".
func (Asset) SearchConcats() [][]string {
	return [][]string{{"make", "model_name"}}
}

// SearchRelations macht Treffer in Tags und Kategorie ausreichend für die
// Aufnahme des Assets ins Ergebnis.
func (Asset) SearchRelations() []searchable.Relation {
	return []searchable.Relation{
		{Name: "Tags", Targets: []searchable.Expression{searchable.Column("name")}},
		{Name: "Category", Targets: []searchable.Expression{
			searchable.Column("name"),
			searchable.Column("slug"),
		}},
	}
}

// HiddenColumns hält interne Felder aus jeder Suche heraus.
func (Asset) HiddenColumns() []string {
	return []string{"serial_number", "internal_notes", "attributes"}
}
