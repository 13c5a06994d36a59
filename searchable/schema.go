package searchable

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"searchkit/cache"
)

// Descriptor identifiziert einen durchsuchbaren Entitätstyp über seinen
// Tabellennamen. Alle weiteren Deklarationen sind optionale Fähigkeiten;
// fehlen sie, gelten die GORM-Konventionen.
type Descriptor interface {
	TableName() string
}

// ColumnsDeclarer deklariert die eigenen Suchspalten explizit. Eine explizite
// Liste wird unverändert übernommen und umgeht die Ausschlussfilterung.
type ColumnsDeclarer interface {
	SearchColumns() []string
}

// ConcatsDeclarer deklariert Feldgruppen, die als ein kombinierter Ausdruck
// durchsucht werden.
type ConcatsDeclarer interface {
	SearchConcats() [][]string
}

// RelationsDeclarer deklariert benannte Beziehungen samt Suchzielen auf der
// verknüpften Entität.
type RelationsDeclarer interface {
	SearchRelations() []Relation
}

// HiddenDeclarer benennt Spalten, die bei der automatischen Spaltenermittlung
// ausgeschlossen werden.
type HiddenDeclarer interface {
	HiddenColumns() []string
}

// PrimaryKeyDeclarer überschreibt den Namen der Identitätsspalte (Default: id).
type PrimaryKeyDeclarer interface {
	PrimaryKeyColumn() string
}

// TimestampsDeclarer überschreibt die Namen der Audit-Zeitstempel
// (Default: created_at, updated_at).
type TimestampsDeclarer interface {
	TimestampColumns() (createdAt, updatedAt string)
}

// Relation benennt eine Beziehung und ihre durchsuchbaren Ziel-Ausdrücke.
// Die Reihenfolge der Ziele ist signifikant: das erste Ziel sät die
// Unterbedingung immer, unabhängig vom Match-Modus.
type Relation struct {
	Name    string
	Targets []Expression
}

// ColumnLister liefert die vollständige Spaltenliste einer Tabelle.
type ColumnLister interface {
	ListColumns(table string) ([]string, error)
}

// GormLister fragt das Schema über den GORM-Migrator ab.
type GormLister struct {
	DB *gorm.DB
}

func (l GormLister) ListColumns(table string) ([]string, error) {
	if !l.DB.Migrator().HasTable(table) {
		return nil, fmt.Errorf("searchable: unknown table %q", table)
	}
	types, err := l.DB.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("searchable: list columns for %q: %w", table, err)
	}
	cols := make([]string, 0, len(types))
	for _, t := range types {
		cols = append(cols, t.Name())
	}
	return cols, nil
}

// Introspector löst die durchsuchbare Spaltenmenge einer Entität auf und
// memoisiert das Ergebnis pro Tabelle im übergebenen Store.
type Introspector struct {
	lister ColumnLister
	store  cache.Store
	log    *zap.Logger
}

// NewIntrospector erstellt einen Introspector. store darf nil sein, dann wird
// ein prozessweiter In-Memory-Store verwendet; log darf nil sein.
func NewIntrospector(lister ColumnLister, store cache.Store, log *zap.Logger) *Introspector {
	if store == nil {
		store = defaultStore
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Introspector{lister: lister, store: store, log: log}
}

// Columns liefert die Suchspalten des Modells für die gegebene Tabelle.
// Eine explizite SearchColumns-Deklaration gewinnt und wird nicht gecacht;
// andernfalls wird die Spaltenliste der Persistenzschicht um Identitätsspalte,
// Zeitstempel und versteckte Felder reduziert und memoisiert.
func (in *Introspector) Columns(model any, table string) ([]string, error) {
	if d, ok := model.(ColumnsDeclarer); ok {
		if cols := d.SearchColumns(); len(cols) > 0 {
			return cols, nil
		}
	}
	return in.store.GetOrCompute(columnsKey(table), func() ([]string, error) {
		all, err := in.lister.ListColumns(table)
		if err != nil {
			return nil, err
		}
		excluded := excludedColumns(model)
		cols := make([]string, 0, len(all))
		for _, c := range all {
			if !excluded[c] {
				cols = append(cols, c)
			}
		}
		in.log.Debug("resolved searchable columns",
			zap.String("table", table),
			zap.Strings("columns", cols))
		return cols, nil
	})
}

// ColumnsOf ist die Descriptor-Variante von Columns für Aufrufer außerhalb
// eines Query-Scopes.
func (in *Introspector) ColumnsOf(desc Descriptor) ([]string, error) {
	return in.Columns(desc, desc.TableName())
}

// Forget verwirft die memoisierte Spaltenmenge einer Tabelle, etwa nach
// einer externen Migration.
func (in *Introspector) Forget(table string) {
	in.store.Forget(columnsKey(table))
}

func columnsKey(table string) string {
	return "searchable:columns:" + table
}

func excludedColumns(model any) map[string]bool {
	pk := "id"
	if d, ok := model.(PrimaryKeyDeclarer); ok {
		pk = d.PrimaryKeyColumn()
	}
	createdAt, updatedAt := "created_at", "updated_at"
	if d, ok := model.(TimestampsDeclarer); ok {
		createdAt, updatedAt = d.TimestampColumns()
	}
	excluded := map[string]bool{pk: true, createdAt: true, updatedAt: true}
	if d, ok := model.(HiddenDeclarer); ok {
		for _, c := range d.HiddenColumns() {
			excluded[c] = true
		}
	}
	return excluded
}
