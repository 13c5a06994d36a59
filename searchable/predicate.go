package searchable

import (
	"strings"

	"gorm.io/gorm"
)

// Predicate ist ein unveränderlicher boolescher Ausdrucksbaum. Der Nullwert
// ist der leere Baum; And und Or liefern jeweils einen neuen Wert, der
// Empfänger bleibt unverändert. Gerendert wird zu einem SQL-Fragment mit
// ?-Platzhaltern, die Bind-Variablen laufen durch GORMs eigene Pipeline.
type Predicate struct {
	sql  string
	vars []any
	op   string // "AND", "OR" oder "" für Blätter und den leeren Baum
}

// Empty meldet, ob der Baum noch keine Bedingung enthält.
func (p Predicate) Empty() bool {
	return p.sql == ""
}

// Contains erzeugt einen Substring-Vergleich: der Ausdruck muss den Begriff
// enthalten, beide Seiten UPPER-normalisiert.
func Contains(db *gorm.DB, expr Expression, term string) Predicate {
	return Predicate{
		sql:  expr.render(db) + " LIKE ?",
		vars: []any{"%" + strings.ToUpper(term) + "%"},
	}
}

// And verengt den Baum um eine weitere Bedingung. Auf dem leeren Baum wirkt
// And als Saat.
func (p Predicate) And(q Predicate) Predicate {
	return p.combine("AND", q)
}

// Or erweitert den Baum um eine alternative Bedingung. Auf dem leeren Baum
// wirkt Or als Saat.
func (p Predicate) Or(q Predicate) Predicate {
	return p.combine("OR", q)
}

func (p Predicate) combine(op string, q Predicate) Predicate {
	if p.Empty() {
		return q
	}
	if q.Empty() {
		return p
	}
	left := p.sql
	if p.op != "" && p.op != op {
		left = "(" + left + ")"
	}
	right := q.sql
	if q.op != "" && q.op != op {
		right = "(" + right + ")"
	}
	vars := make([]any, 0, len(p.vars)+len(q.vars))
	vars = append(vars, p.vars...)
	vars = append(vars, q.vars...)
	return Predicate{sql: left + " " + op + " " + right, vars: vars, op: op}
}

// Render liefert das Fragment in einer äußeren Klammerung samt Bind-Variablen,
// sodass es sich per AND mit beliebigen weiteren Filtern des Aufrufers verträgt.
func (p Predicate) Render() (string, []any) {
	if p.Empty() {
		return "", nil
	}
	return "(" + p.sql + ")", p.vars
}
