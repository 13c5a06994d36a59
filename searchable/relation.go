package searchable

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"
)

// existsCondition baut die EXISTS-Unterbedingung für eine deklarierte
// Beziehung: "es gibt einen verknüpften Datensatz, der den Begriff enthält".
// Die Verknüpfungsspalten stammen aus den GORM-Beziehungsmetadaten; bei
// many2many wandert die Join-Tabelle mit in die FROM-Liste.
func existsCondition(db *gorm.DB, sch *gormschema.Schema, rel Relation, term string, matchAll bool) (Predicate, error) {
	relationship, ok := sch.Relationships.Relations[rel.Name]
	if !ok {
		return Predicate{}, fmt.Errorf("searchable: relation %q not defined on %s", rel.Name, sch.Name)
	}
	if len(rel.Targets) == 0 {
		return Predicate{}, fmt.Errorf("searchable: relation %q on %s declares no search targets", rel.Name, sch.Name)
	}
	related := relationship.FieldSchema

	var inner Predicate
	for i, target := range rel.Targets {
		cond := Contains(db, qualify(target, related.Table), term)
		// Das erste Ziel sät die Unterbedingung immer; erst danach greift
		// der Match-Modus.
		if i == 0 || matchAll {
			inner = inner.And(cond)
		} else {
			inner = inner.Or(cond)
		}
	}

	tables := []string{quoteIdent(db, related.Table)}
	if relationship.JoinTable != nil {
		tables = append(tables, quoteIdent(db, relationship.JoinTable.Table))
	}

	var links []string
	var linkVars []any
	for _, ref := range relationship.References {
		if ref.PrimaryValue != "" {
			// Polymorphe Beziehung: der Typ-Diskriminator ist eine Konstante.
			links = append(links, columnRef(db, ref.ForeignKey)+" = ?")
			linkVars = append(linkVars, ref.PrimaryValue)
			continue
		}
		links = append(links, columnRef(db, ref.ForeignKey)+" = "+columnRef(db, ref.PrimaryKey))
	}
	if len(links) == 0 {
		return Predicate{}, fmt.Errorf("searchable: relation %q on %s has no join references", rel.Name, sch.Name)
	}

	innerSQL, innerVars := inner.Render()
	sql := "EXISTS (SELECT 1 FROM " + strings.Join(tables, ", ") +
		" WHERE " + strings.Join(links, " AND ") + " AND " + innerSQL + ")"
	vars := make([]any, 0, len(linkVars)+len(innerVars))
	vars = append(vars, linkVars...)
	vars = append(vars, innerVars...)
	return Predicate{sql: sql, vars: vars}, nil
}

func columnRef(db *gorm.DB, f *gormschema.Field) string {
	return quoteIdent(db, f.Schema.Table+"."+f.DBName)
}
