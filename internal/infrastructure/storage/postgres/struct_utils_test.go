package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stayledger/internal/core/entity"
	"stayledger/internal/core/id"
)

type mockRecord struct {
	entity.BaseDocument
	Name   string `db:"name" json:"name"`
	Hidden string `db:"-" json:"hidden"`
	NoTag  string
}

func TestExtractDBColumns_EmbeddedFields(t *testing.T) {
	cols := ExtractDBColumns[mockRecord]()

	expected := []string{
		"id", "deletion_mark", "version",
		"created_at", "updated_at", "created_by", "updated_by",
		"name",
	}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "hidden")
}

func TestStructToMap(t *testing.T) {
	rec := mockRecord{
		BaseDocument: entity.NewBaseDocument(),
		Name:         "Seaside Cottage",
		Hidden:       "skip me",
	}
	rec.ID = id.New()
	rec.Version = 3

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, "Seaside Cottage", m["name"])
	assert.NotContains(t, m, "hidden")
	assert.NotContains(t, m, "NoTag")
}

func TestStructToMap_Pointer(t *testing.T) {
	rec := &mockRecord{Name: "Ptr"}
	m := StructToMap(rec)
	assert.Equal(t, "Ptr", m["name"])
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}
