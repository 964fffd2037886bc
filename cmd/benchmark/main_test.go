package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/limaJavier/schooltimetable/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJson = `{
	"classes": [{"name": "Form 1"}, {"name": "Form 2"}, {"name": "Form 3"}],
	"teachers": [{"name": "Mr. Otieno"}, {"name": "Mr. Kamau"}, {"name": "Mrs. Wanjiru"}],
	"subjects": [{"name": "Mathematics"}, {"name": "Chemistry"}, {"name": "English"}],
	"rooms": [{"name": "Lab 1"}],
	"assignments": [
		{"class": 0, "subject": 0, "teacher": 0},
		{"class": 0, "subject": 1, "teacher": 1, "room": 0},
		{"class": 1, "subject": 0, "teacher": 0},
		{"class": 1, "subject": 2, "teacher": 2}
	]
}`

func writeCatalog(t *testing.T) string {
	directory := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(directory, "school.json"), []byte(catalogJson), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(directory, "notes.txt"), []byte("ignored"), 0644))
	return directory
}

func TestGetCatalogs(t *testing.T) {
	catalogs, err := getCatalogs(writeCatalog(t))

	require.NoError(t, err)
	require.Len(t, catalogs, 1)
	assert.Equal(t, "school.json", catalogs[0].Name)
	assert.Equal(t, 3, catalogs[0].Classes)
	assert.Equal(t, 4, catalogs[0].Assignments)
}

func TestMeasure(t *testing.T) {
	//** Arrange
	catalogs, err := getCatalogs(writeCatalog(t))
	require.NoError(t, err)

	//** Act
	result := measure(context.Background(), catalogs[0], model.DefaultGrid(), 4)

	//** Assert
	assert.Equal(t, valid, result.Result)
	assert.Equal(t, 1, result.Failed) // Form 3 has no assignments
	assert.Positive(t, result.Entries)
	assert.LessOrEqual(t, result.Entries, 100)
	assert.Equal(t, 100, result.Entries+result.Unfilled)
}

func TestToCsv(t *testing.T) {
	//** Arrange
	results := []BenchmarkResult{
		{
			Catalog:  CatalogMetadata{Name: "school.json", Classes: 2, Teachers: 3, Subjects: 3, Rooms: 1, Assignments: 4},
			Seed:     1,
			Duration: 12,
			Memory:   1.5,
			Entries:  95,
			Unfilled: 5,
			Result:   valid,
		},
	}
	var output bytes.Buffer

	//** Act
	err := toCsv(&output, results)

	//** Assert
	require.NoError(t, err)
	records, err := csv.NewReader(&output).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"school.json", "2", "3", "3", "1", "4", "1", "12", "1.5", "95", "0", "5", "0", "0", "valid"}, records[1])
}

func TestLoadGrid(t *testing.T) {
	//** Arrange
	directory := t.TempDir()
	t.Chdir(directory)
	file := filepath.Join(directory, "timetable.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
grid:
  days: [Monday, Tuesday]
  periods:
    - {start: "08:00", end: "09:00"}
    - {start: "15:00", end: "16:00"}
  doubleSubjects: [Chemistry]
`), 0644))
	catalogs, err := getCatalogs(writeCatalog(t))
	require.NoError(t, err)

	//** Act
	grid, err := loadGrid(file)
	result := measure(context.Background(), catalogs[0], grid, 2)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"Monday", "Tuesday"}, grid.Days)
	assert.Len(t, grid.Periods, 2)
	assert.Equal(t, valid, result.Result)
	assert.Equal(t, 8, result.Entries+result.Unfilled) // Two classes over two days of two periods
}

func TestLoadGridDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	grid, err := loadGrid("")

	require.NoError(t, err)
	assert.Equal(t, model.DefaultGrid(), grid)
}
