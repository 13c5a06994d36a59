// Package searchable hängt eine Freitext-Suche als zusammensetzbaren Filter
// an beliebige GORM-Queries: eigene Spalten, Feld-Konkatenationen und Felder
// verknüpfter Datensätze werden zu einem einzigen Substring-Prädikat gefaltet.
package searchable

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"searchkit/cache"
)

// defaultStore memoisiert Spaltenmengen prozessweit, wenn der Aufrufer keinen
// eigenen Store injiziert.
var defaultStore = cache.NewMemory(0)

// ErrNoModel zeigt an, dass der Scope ohne Model-Kontext aufgerufen wurde.
var ErrNoModel = errors.New("searchable: query has no model; call Model(...) before Scopes(...)")

// Option steuert das Suchverhalten eines Scopes.
type Option func(*settings)

type settings struct {
	matchAll     bool
	introspector *Introspector
}

// MatchAll verlangt, dass jede eigene Spalte und jede Konkatenation den
// Begriff enthält (AND statt OR). Beziehungs-Treffer bleiben davon unberührt
// und erweitern das Ergebnis immer per OR.
func MatchAll() Option {
	return func(s *settings) { s.matchAll = true }
}

// WithIntrospector ersetzt den pro Aufruf erzeugten Standard-Introspector,
// etwa um einen gemeinsamen Redis-Store oder eine andere Spaltenquelle zu
// verwenden.
func WithIntrospector(in *Introspector) Option {
	return func(s *settings) { s.introspector = in }
}

// Scope liefert einen GORM-Scope, der die Suche an die Query anhängt:
//
//	db.Model(&models.Asset{}).Scopes(searchable.Scope(term)).Find(&assets)
//
// Ein leerer oder nur aus Leerraum bestehender Begriff ist ein No-op. Die
// Suche ist case-insensitiv; %- und _-Zeichen im Begriff werden nicht
// escaped. Konfigurationsfehler (unbekannte Tabelle, unbekannte Beziehung)
// landen über AddError im Fehlerkanal der Query.
func Scope(term string, opts ...Option) func(*gorm.DB) *gorm.DB {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return func(tx *gorm.DB) *gorm.DB {
		return apply(tx, term, s)
	}
}

func apply(tx *gorm.DB, term string, s settings) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return tx
	}

	model := tx.Statement.Model
	if model == nil {
		_ = tx.AddError(ErrNoModel)
		return tx
	}
	if err := tx.Statement.Parse(model); err != nil {
		_ = tx.AddError(err)
		return tx
	}
	sch := tx.Statement.Schema

	in := s.introspector
	if in == nil {
		// Frische Session, damit die Migrator-Abfragen nicht auf dem gerade
		// entstehenden Statement laufen.
		in = NewIntrospector(GormLister{DB: tx.Session(&gorm.Session{NewDB: true})}, nil, nil)
	}
	cols, err := in.Columns(model, sch.Table)
	if err != nil {
		_ = tx.AddError(err)
		return tx
	}

	var pred Predicate
	fold := func(cond Predicate) {
		if s.matchAll {
			pred = pred.And(cond)
		} else {
			pred = pred.Or(cond)
		}
	}

	for _, col := range cols {
		fold(Contains(tx, Column(col), term))
	}

	if d, ok := model.(ConcatsDeclarer); ok {
		for _, group := range d.SearchConcats() {
			if len(group) == 0 {
				continue
			}
			fold(Contains(tx, Concat(group), term))
		}
	}

	if d, ok := model.(RelationsDeclarer); ok {
		for _, rel := range d.SearchRelations() {
			sub, err := existsCondition(tx, sch, rel, term, s.matchAll)
			if err != nil {
				_ = tx.AddError(err)
				return tx
			}
			// Beziehungen erweitern immer, unabhängig vom Match-Modus.
			pred = pred.Or(sub)
		}
	}

	if pred.Empty() {
		return tx
	}
	sql, vars := pred.Render()
	return tx.Where(sql, vars...)
}
