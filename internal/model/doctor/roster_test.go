package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoster(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadRoster(t *testing.T) {
	path := writeRoster(t, `
doctors:
  - id: dr-chen
    name: Dr. Lin Chen
    specialization: ENT
    available_from: "08:30"
    available_to: "12:00"
`)

	doctors, v, err := LoadRoster(path)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Len(t, doctors, 1)
	assert.Equal(t, Doctor{
		ID:             "dr-chen",
		Name:           "Dr. Lin Chen",
		Specialization: "ENT",
		AvailableFrom:  "08:30",
		AvailableTo:    "12:00",
	}, doctors[0])
}

func TestLoadRosterRejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"empty":     "doctors: []\n",
		"no id":     "doctors:\n  - name: Dr. X\n    available_from: \"09:00\"\n    available_to: \"10:00\"\n",
		"bad hours": "doctors:\n  - id: x\n    name: Dr. X\n    available_from: \"17:00\"\n    available_to: \"09:00\"\n",
		"duplicate": "doctors:\n  - id: x\n    name: Dr. X\n    available_from: \"09:00\"\n    available_to: \"10:00\"\n  - id: x\n    name: Dr. Y\n    available_from: \"09:00\"\n    available_to: \"10:00\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := LoadRoster(writeRoster(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadRosterMissingFile(t *testing.T) {
	_, _, err := LoadRoster(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(Seed())

	d, ok := store.FindByID("dr-sharma")
	require.True(t, ok)
	assert.Equal(t, "Cardiologist", d.Specialization)

	_, ok = store.FindByID("unknown")
	assert.False(t, ok)

	store.Replace([]Doctor{{ID: "dr-chen", Name: "Dr. Lin Chen"}})
	assert.Len(t, store.List(), 1)
	_, ok = store.FindByID("dr-sharma")
	assert.False(t, ok)
}

func TestCovers(t *testing.T) {
	d := Doctor{AvailableFrom: "09:30", AvailableTo: "16:30"}

	assert.True(t, d.Covers("09:30"))
	assert.True(t, d.Covers("16:00"))
	assert.False(t, d.Covers("09:00"))
	assert.False(t, d.Covers("16:30"))
}

func TestCoversComparesClockTimes(t *testing.T) {
	d := Doctor{AvailableFrom: "9:00", AvailableTo: "17:00"}

	assert.True(t, d.Covers("10:00"))
	assert.True(t, d.Covers("09:00"))
	assert.False(t, d.Covers("08:30"))
	assert.False(t, d.Covers("17:00"))
	assert.False(t, d.Covers("noon"))
}

func TestLoadRosterPadsHours(t *testing.T) {
	path := writeRoster(t, `
doctors:
  - id: dr-a
    name: Dr. A
    available_from: "9:00"
    available_to: "17:00"
`)

	doctors, _, err := LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "09:00", doctors[0].AvailableFrom)
	assert.Equal(t, "17:00", doctors[0].AvailableTo)
	assert.True(t, doctors[0].Covers("10:00"))
}
