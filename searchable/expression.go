package searchable

import (
	"strings"

	"gorm.io/gorm"
)

// Expression ist ein skalarer Suchausdruck über ein oder mehrere Felder.
// Die beiden Varianten Column und Concat werden erst beim Anhängen an eine
// Query gegen den aktiven Dialekt gerendert.
type Expression interface {
	render(db *gorm.DB) string
}

// Column durchsucht ein einzelnes Feld.
type Column string

// Concat fasst mehrere Felder mit einem Leerzeichen-Separator zu einem
// vergleichbaren Ausdruck zusammen. NULL-Felder werden als leer behandelt.
type Concat []string

func (c Column) render(db *gorm.DB) string {
	return "UPPER(" + quoteIdent(db, string(c)) + ")"
}

func (c Concat) render(db *gorm.DB) string {
	if len(c) == 1 {
		return Column(c[0]).render(db)
	}
	quoted := make([]string, len(c))
	for i, name := range c {
		quoted[i] = quoteIdent(db, name)
	}
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return "UPPER(CONCAT_WS(' ', " + strings.Join(quoted, ", ") + "))"
	default:
		// SQLite kennt kein CONCAT_WS; COALESCE + || verhält sich bei NULL gleich.
		for i, q := range quoted {
			quoted[i] = "COALESCE(" + q + ", '')"
		}
		return "UPPER(" + strings.Join(quoted, " || ' ' || ") + ")"
	}
}

// quoteIdent quotet einen (ggf. mit Tabelle qualifizierten) Bezeichner
// über den aktiven Dialekt.
func quoteIdent(db *gorm.DB, name string) string {
	var sb strings.Builder
	db.Dialector.QuoteTo(&sb, name)
	return sb.String()
}

// qualify stellt jedem Feldnamen des Ausdrucks die Tabelle voran, sofern er
// nicht bereits qualifiziert ist. Wird für Beziehungs-Unterabfragen benötigt,
// damit Spalten der verknüpften Tabelle nicht mit der Elterntabelle kollidieren.
func qualify(e Expression, table string) Expression {
	prefix := func(name string) string {
		if strings.Contains(name, ".") {
			return name
		}
		return table + "." + name
	}
	switch v := e.(type) {
	case Column:
		return Column(prefix(string(v)))
	case Concat:
		out := make(Concat, len(v))
		for i, name := range v {
			out[i] = prefix(name)
		}
		return out
	}
	return e
}
