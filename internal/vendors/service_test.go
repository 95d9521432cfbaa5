package vendors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbook-dev/greenbook/internal/model"
)

func TestFindByName(t *testing.T) {
	svc := NewService([]model.Vendor{
		{ID: "v1", Name: "Viveros García"},
		{ID: "v2", Name: "Suministros Agrícolas del Sur"},
	})

	v, ok := svc.FindByName("viveros garcía")
	require.True(t, ok, "exact match, case-insensitive")
	assert.Equal(t, "v1", v.ID)

	v, ok = svc.FindByName("agrícolas")
	require.True(t, ok, "substring match")
	assert.Equal(t, "v2", v.ID)

	_, ok = svc.FindByName("Maquinaria Pérez")
	assert.False(t, ok)

	_, ok = svc.FindByName("   ")
	assert.False(t, ok)
}

func TestGetOrCreate(t *testing.T) {
	svc := NewService([]model.Vendor{{ID: "v1", Name: "Viveros García"}})

	v, created := svc.GetOrCreate("Viveros García")
	assert.False(t, created)
	assert.Equal(t, "v1", v.ID)

	v, created = svc.GetOrCreate("  Maquinaria Pérez  ")
	assert.True(t, created)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "Maquinaria Pérez", v.Name)

	// Second call finds the one just created.
	again, created := svc.GetOrCreate("Maquinaria Pérez")
	assert.False(t, created)
	assert.Equal(t, v.ID, again.ID)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	svc := NewService(nil)
	svc.Add(model.Vendor{Name: "Viveros García", TaxID: "B12345678", Email: "pedidos@viveros.example"})
	require.NoError(t, svc.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, loaded.All(), 1)
	assert.Equal(t, "Viveros García", loaded.All()[0].Name)
	assert.Equal(t, "B12345678", loaded.All()[0].TaxID)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	svc, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, svc.All())
}
