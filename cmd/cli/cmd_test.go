package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/limaJavier/schooltimetable/internal/api"
	"github.com/limaJavier/schooltimetable/pkg/model"
	"github.com/limaJavier/schooltimetable/pkg/store"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    []string
}

func testCatalog() model.Catalog {
	catalog, err := model.ProcessRawCatalog(model.RawCatalog{
		Classes:  []model.Class{{Name: "Form 1"}, {Name: "Form 2"}},
		Teachers: []model.Teacher{{Name: "Mr. Otieno"}, {Name: "Mrs. Wanjiru"}},
		Subjects: []model.Subject{{Name: "Mathematics"}, {Name: "English"}},
		Assignments: []model.RawAssignment{
			{Class: 0, Subject: 0, Teacher: 0},
			{Class: 0, Subject: 1, Teacher: 1},
		},
	})
	if err != nil {
		panic(err)
	}
	return catalog
}

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	loadCatalogFunc = func(string) (model.Catalog, error) { return testCatalog(), nil }

	out := &bytes.Buffer{}
	grid := model.DefaultGrid()
	timetableStore := store.NewMemoryStore()
	logger := zaptest.NewLogger(t)
	return &commandLine{
		catalogFile: "catalog.json",
		grid:        grid,
		httpAddr:    ":0",
		store:       timetableStore,
		timetabler:  model.NewRandomTimetabler(timetableStore, grid, model.NewRandomSource(3), logger),
		logger:      logger,
		out:         out,
	}, out
}

func runTests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"timetable"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(context.Background(), args)

			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else if tt.wantErrStr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
			} else {
				assert.NoError(t, err)
			}
			for _, line := range tt.wantOut {
				assert.Contains(t, out.String(), line)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "show: no class", args: []string{"show"}, wantErr: errHelp},
		{name: "show: unknown class", args: []string{"show", "-class", "9"}, wantErrStr: "unknown class 9"},
		{name: "generate", args: []string{"generate"}, wantOut: []string{
			"Form 1: 50 lessons, 0 conflicts, 0 unfilled slots",
			"Form 2: skipped (no eligible subject)",
			"Timetable generated successfully.",
		}},
		{name: "verify", args: []string{"verify"}, wantOut: []string{"Timetable is valid."}},
		{name: "show", args: []string{"show", "-class", "0"}, wantOut: []string{
			"Form 1",
			"Period",
			"Monday",
			"08:00-08:30",
			"16:00-17:00",
			"~Mr. Otieno",
		}},
	}
	runTests(t, cli, out, tests)
}

func Test_commandLine_show_empty(t *testing.T) {
	cli, out := setup(t)

	require.NoError(t, cli.run(context.Background(), []string{"timetable", "show", "-class", "1"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "Form 2", lines[0])
	assert.Len(t, lines, 3) // Name, blank line and header
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	var gotCommand string
	var gotArgs []string
	migrateFunc = func(ctx context.Context, db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "down", "status", "version", "reset":
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%v must be of form: migrate %v VERSION", command, command)
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		gotCommand, gotArgs = command, args
		return nil
	}

	t.Run("memory store", func(t *testing.T) {
		err := cli.run(context.Background(), []string{"timetable", "migrate", "up"})
		assert.EqualError(t, err, "migrations require the postgres store")
	})

	cli.db = sqlx.NewDb(nil, "pgx")
	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: migrate up-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	runTests(t, cli, out, tests)

	assert.Equal(t, "status", gotCommand)
	assert.Empty(t, gotArgs)
}

func Test_commandLine_serve(t *testing.T) {
	cli, _ := setup(t)

	var gotAddr string
	serveFunc = func(server *api.Server, addr string) error {
		gotAddr = addr
		return nil
	}

	require.NoError(t, cli.run(context.Background(), []string{"timetable", "serve"}))
	assert.Equal(t, ":0", gotAddr)
}

func Test_commandLine_ephemeralStore(t *testing.T) {
	cli, out := setup(t)
	cli.ephemeral = true

	serveFunc = func(server *api.Server, addr string) error { return nil }

	tests := []cliTest{
		{name: "generate", args: []string{"generate"}, wantErr: errEphemeralStore},
		{name: "show", args: []string{"show", "-class", "0"}, wantErr: errEphemeralStore},
		{name: "verify", args: []string{"verify"}, wantErr: errEphemeralStore},
		{name: "serve", args: []string{"serve"}},
	}
	runTests(t, cli, out, tests)

	assert.NotContains(t, out.String(), "Timetable generated successfully.")
	assert.NotContains(t, out.String(), "Timetable is valid.")
	entries, err := cli.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
