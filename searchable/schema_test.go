package searchable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchkit/cache"
)

type fakeLister struct {
	cols  map[string][]string
	calls int
}

func (f *fakeLister) ListColumns(table string) ([]string, error) {
	f.calls++
	cols, ok := f.cols[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	return cols, nil
}

type inventoryItem struct{}

func (inventoryItem) TableName() string { return "inventory_items" }

func (inventoryItem) HiddenColumns() []string { return []string{"secret_code"} }

type legacyRecord struct{}

func (legacyRecord) TableName() string { return "legacy_records" }

func (legacyRecord) PrimaryKeyColumn() string { return "uuid" }

func (legacyRecord) TimestampColumns() (string, string) { return "inserted_at", "modified_at" }

type curatedDoc struct{}

func (curatedDoc) TableName() string { return "curated_docs" }

func (curatedDoc) SearchColumns() []string { return []string{"title", "id"} }

func TestColumnsExcludesConventionalColumns(t *testing.T) {
	lister := &fakeLister{cols: map[string][]string{
		"inventory_items": {"id", "created_at", "updated_at", "name", "location", "secret_code"},
	}}
	in := NewIntrospector(lister, cache.NewMemory(0), nil)

	cols, err := in.ColumnsOf(inventoryItem{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "location"}, cols,
		"identity key, timestamps and hidden fields are excluded, order preserved")
}

func TestColumnsRespectsDeclaredOverrides(t *testing.T) {
	lister := &fakeLister{cols: map[string][]string{
		"legacy_records": {"uuid", "inserted_at", "modified_at", "id", "title"},
	}}
	in := NewIntrospector(lister, cache.NewMemory(0), nil)

	cols, err := in.ColumnsOf(legacyRecord{})
	require.NoError(t, err)
	// "id" ist hier eine gewöhnliche Spalte, der Schlüssel heißt uuid.
	assert.Equal(t, []string{"id", "title"}, cols)
}

func TestColumnsExplicitDeclarationIsVerbatim(t *testing.T) {
	lister := &fakeLister{cols: map[string][]string{}}
	in := NewIntrospector(lister, cache.NewMemory(0), nil)

	cols, err := in.ColumnsOf(curatedDoc{})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "id"}, cols,
		"explicit declarations bypass the exclusion filter")
	assert.Zero(t, lister.calls, "schema source is not consulted")
}

func TestColumnsMemoization(t *testing.T) {
	lister := &fakeLister{cols: map[string][]string{
		"inventory_items": {"id", "created_at", "updated_at", "name"},
	}}
	in := NewIntrospector(lister, cache.NewMemory(0), nil)

	first, err := in.ColumnsOf(inventoryItem{})
	require.NoError(t, err)

	// Schemaquelle mutieren: ohne Invalidierung bleibt das Ergebnis stabil.
	lister.cols["inventory_items"] = []string{"id", "created_at", "updated_at", "name", "added_later"}

	second, err := in.ColumnsOf(inventoryItem{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, lister.calls)

	in.Forget("inventory_items")
	third, err := in.ColumnsOf(inventoryItem{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "added_later"}, third)
	assert.Equal(t, 2, lister.calls)
}

func TestColumnsUnknownTablePropagates(t *testing.T) {
	lister := &fakeLister{cols: map[string][]string{}}
	in := NewIntrospector(lister, cache.NewMemory(0), nil)

	_, err := in.ColumnsOf(inventoryItem{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inventory_items")

	// Fehler werden nicht memoisiert.
	lister.cols["inventory_items"] = []string{"id", "name"}
	cols, err := in.ColumnsOf(inventoryItem{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, cols)
}
