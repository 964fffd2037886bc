package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/limaJavier/schooltimetable/internal/config"
	"github.com/limaJavier/schooltimetable/pkg/model"
	"github.com/limaJavier/schooltimetable/pkg/store"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const MB float32 = 1024 * 1024

type ResultType int

const (
	valid ResultType = iota
	invalid
	aborted
)

var resultTypes = map[ResultType]string{
	valid:   "valid",
	invalid: "invalid",
	aborted: "aborted",
}

type CatalogMetadata struct {
	Name        string
	Catalog     model.Catalog
	Classes     int
	Teachers    int
	Subjects    int
	Rooms       int
	Assignments int
}

type BenchmarkResult struct {
	Catalog   CatalogMetadata
	Seed      uint64
	Duration  int64   // Milliseconds
	Memory    float32 // Allocated MB
	Entries   int
	Conflicts int
	Unfilled  int
	Resets    int
	Failed    int
	Result    ResultType
}

func main() {
	directoryPtr := flag.String("dir", "", "Directory holding the catalog JSON files to benchmark")
	runsPtr := flag.Int("runs", 10, "Number of generations per catalog, each with its own seed")
	outFilePtr := flag.String("out", "benchmark_results.csv", "Path to the CSV file where results will be written")
	configFilePtr := flag.String("config", "", "Configuration file whose grid is used; if empty, timetable.yaml and TIMETABLE_* variables are read as by the CLI")
	flag.Parse()

	if *directoryPtr == "" {
		log.Fatal("a catalog directory must be specified")
	} else if *runsPtr <= 0 {
		log.Fatalf("runs must be positive: %v", *runsPtr)
	}

	grid, err := loadGrid(*configFilePtr)
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}

	catalogs, err := getCatalogs(*directoryPtr)
	if err != nil {
		log.Fatalf("cannot load catalogs: %v", err)
	}

	results := make([]BenchmarkResult, 0, len(catalogs)*(*runsPtr))
	for _, catalog := range catalogs {
		for run := range *runsPtr {
			seed := uint64(run + 1)
			fmt.Printf("Benchmarking catalog \"%v\" with seed %v\n", catalog.Name, seed)
			results = append(results, measure(context.Background(), catalog, grid, seed))
		}
	}

	file, err := os.Create(*outFilePtr)
	if err != nil {
		log.Fatalf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	if err := toCsv(file, results); err != nil {
		log.Fatalf("cannot write CSV file: %v", err)
	}
}

// loadGrid returns the grid the CLI would generate with
func loadGrid(configFile string) (model.Grid, error) {
	conf, err := config.Load(configFile)
	if err != nil {
		return model.Grid{}, err
	}
	return conf.Grid, nil
}

func getCatalogs(directory string) ([]CatalogMetadata, error) {
	files, err := filepath.Glob(filepath.Join(directory, "*.json"))
	if err != nil {
		return nil, errors.Wrap(err, "listing catalog files")
	}

	catalogs := make([]CatalogMetadata, 0, len(files))
	for _, filename := range files {
		catalog, err := model.CatalogFromJson(filename)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %v", filename)
		}

		catalogs = append(catalogs, CatalogMetadata{
			Name:        filepath.Base(filename),
			Catalog:     catalog,
			Classes:     len(catalog.Classes),
			Teachers:    len(catalog.Teachers),
			Subjects:    len(catalog.Subjects),
			Rooms:       len(catalog.Rooms),
			Assignments: len(catalog.Assignments),
		})
	}
	return catalogs, nil
}

// measure generates the catalog's timetable once against a fresh memory store and verifies it
func measure(ctx context.Context, catalog CatalogMetadata, grid model.Grid, seed uint64) BenchmarkResult {
	timetableStore := store.NewMemoryStore()
	timetabler := model.NewRandomTimetabler(timetableStore, grid, model.NewRandomSource(seed), nil)
	result := BenchmarkResult{Catalog: catalog, Seed: seed}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	report, err := timetabler.Build(ctx, catalog.Catalog)

	result.Duration = time.Since(start).Milliseconds()
	runtime.ReadMemStats(&after)
	result.Memory = float32(after.TotalAlloc-before.TotalAlloc) / MB

	if err != nil {
		log.Printf("generation aborted for catalog \"%v\" with seed %v: %v", catalog.Name, seed, err)
		result.Result = aborted
		return result
	}

	result.Entries, result.Conflicts, result.Unfilled, result.Resets = report.Totals()
	result.Failed = len(report.Failed())

	result.Result = valid
	if err := timetabler.Verify(ctx, catalog.Catalog); err != nil {
		log.Printf("invalid timetable for catalog \"%v\" with seed %v: %v", catalog.Name, seed, err)
		result.Result = invalid
	}
	return result
}

func toCsv(output io.Writer, results []BenchmarkResult) error {
	writer := csv.NewWriter(output)

	header := []string{"Catalog", "Classes", "Teachers", "Subjects", "Rooms", "Assignments", "Seed", "Duration(ms)", "Memory(MB)", "Entries", "Conflicts", "Unfilled", "Resets", "Failed Classes", "Result"}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}

	for _, result := range results {
		record := append(
			[]string{result.Catalog.Name},
			lo.Map([]int{result.Catalog.Classes, result.Catalog.Teachers, result.Catalog.Subjects, result.Catalog.Rooms, result.Catalog.Assignments}, func(count int, _ int) string {
				return fmt.Sprintf("%d", count)
			})...,
		)
		record = append(record,
			fmt.Sprintf("%d", result.Seed),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.Entries),
			fmt.Sprintf("%d", result.Conflicts),
			fmt.Sprintf("%d", result.Unfilled),
			fmt.Sprintf("%d", result.Resets),
			fmt.Sprintf("%d", result.Failed),
			resultTypes[result.Result],
		)
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, "writing CSV record")
		}
	}

	writer.Flush()
	return writer.Error()
}
