package encounters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	king, ok := table.Lookup("Goblin King")
	assert.True(t, ok)
	assert.Equal(t, 3, king.Tier)

	_, ok = table.Lookup("goblin king")
	assert.False(t, ok, "names match exactly")

	e, ok := table.Lookup("Lich")
	require.True(t, ok)
	assert.Equal(t, Encounter{Name: "Lich", Class: "Undead", Tier: 4}, e)

	all := table.All()
	require.Len(t, all, table.Len())
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Tier, all[i].Tier)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		tiers   map[string]int
	}{
		{
			name:  "valid",
			data:  "[[encounter]]\nname = \"Imp\"\ntier = 2\n",
			tiers: map[string]int{"Imp": 2},
		},
		{
			name:  "empty",
			data:  "",
			tiers: map[string]int{},
		},
		{
			name:    "duplicate",
			data:    "[[encounter]]\nname = \"Imp\"\ntier = 2\n[[encounter]]\nname = \"Imp\"\ntier = 3\n",
			wantErr: ErrDuplicateEncounter,
		},
		{
			name:    "zero tier",
			data:    "[[encounter]]\nname = \"Imp\"\ntier = 0\n",
			wantErr: ErrInvalidEncounter,
		},
		{
			name:    "missing name",
			data:    "[[encounter]]\ntier = 1\n",
			wantErr: ErrInvalidEncounter,
		},
		{
			name:    "unknown key",
			data:    "[[encounter]]\nname = \"Imp\"\nteir = 2\n",
			wantErr: ErrInvalidEncounter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse([]byte(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.tiers), table.Len())
			for name, want := range tt.tiers {
				got, ok := table.Lookup(name)
				assert.True(t, ok)
				assert.Equal(t, want, got.Tier)
			}
		})
	}

	t.Run("malformed toml", func(t *testing.T) {
		_, err := Parse([]byte("[[encounter"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[encounter]]\nname = \"Wyrm\"\ntier = 4\n"), 0o600))

	table, err := Load(path)
	require.NoError(t, err)
	wyrm, ok := table.Lookup("Wyrm")
	assert.True(t, ok)
	assert.Equal(t, 4, wyrm.Tier)

	_, ok = table.Lookup("Goblin")
	assert.False(t, ok, "a file replaces the embedded table")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	table, err = Load("")
	require.NoError(t, err)
	assert.Positive(t, table.Len())
}

func TestNilTable(t *testing.T) {
	var table *Table
	_, ok := table.Lookup("Goblin")
	assert.False(t, ok)
	assert.Empty(t, table.All())
}
