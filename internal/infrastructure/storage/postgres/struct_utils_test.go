package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zentropay/internal/core/entity"
)

type mockEntity struct {
	entity.Base
	Name    string `db:"name" json:"name"`
	Email   string `db:"email" json:"email"`
	Ignored string `db:"-" json:"ignored"`
	NoTag   string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockEntity]()

	for _, expected := range []string{"id", "version", "created_at", "updated_at", "created_by", "name", "email"} {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "Ignored")
	assert.NotContains(t, cols, "NoTag")
}

func TestStructToMap(t *testing.T) {
	e := mockEntity{
		Base:    entity.NewBase(),
		Name:    "Acme Corp",
		Email:   "billing@acme.example",
		Ignored: "skip me",
	}
	e.Version = 5

	m := StructToMap(e)

	assert.Equal(t, e.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "Acme Corp", m["name"])
	assert.Equal(t, "billing@acme.example", m["email"])
	assert.NotContains(t, m, "-")

	// Pointer input behaves the same.
	mp := StructToMap(&e)
	assert.Equal(t, m["name"], mp["name"])
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("nope"))
}
