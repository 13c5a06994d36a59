package searchable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func leaf(sql string, vars ...any) Predicate {
	return Predicate{sql: sql, vars: vars}
}

func TestPredicateZeroValue(t *testing.T) {
	var p Predicate
	assert.True(t, p.Empty())

	sql, vars := p.Render()
	assert.Empty(t, sql)
	assert.Nil(t, vars)
}

func TestPredicateSeeding(t *testing.T) {
	a := leaf("a LIKE ?", "%A%")

	for _, seed := range []Predicate{Predicate{}.And(a), Predicate{}.Or(a), a.And(Predicate{}), a.Or(Predicate{})} {
		sql, vars := seed.Render()
		assert.Equal(t, "(a LIKE ?)", sql)
		assert.Equal(t, []any{"%A%"}, vars)
	}
}

func TestPredicateFolding(t *testing.T) {
	a := leaf("a LIKE ?", 1)
	b := leaf("b LIKE ?", 2)
	c := leaf("c LIKE ?", 3)

	t.Run("same operator stays flat", func(t *testing.T) {
		sql, vars := a.Or(b).Or(c).Render()
		assert.Equal(t, "(a LIKE ? OR b LIKE ? OR c LIKE ?)", sql)
		assert.Equal(t, []any{1, 2, 3}, vars)
	})

	t.Run("operator change groups the composite side", func(t *testing.T) {
		sql, vars := a.And(b).Or(c).Render()
		assert.Equal(t, "((a LIKE ? AND b LIKE ?) OR c LIKE ?)", sql)
		assert.Equal(t, []any{1, 2, 3}, vars)
	})

	t.Run("immutability", func(t *testing.T) {
		ab := a.And(b)
		_ = ab.Or(c)
		sql, _ := ab.Render()
		assert.Equal(t, "(a LIKE ? AND b LIKE ?)", sql)
	})
}

func TestContains(t *testing.T) {
	db := sqliteDB(t)

	sql, vars := Contains(db, Column("location"), "office").Render()
	assert.Equal(t, "(UPPER(`location`) LIKE ?)", sql)
	assert.Equal(t, []any{"%OFFICE%"}, vars, "term is upper-folded to match the expression side")
}
