package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/limaJavier/schooltimetable/internal/api"
	"github.com/limaJavier/schooltimetable/pkg/model"
	"github.com/limaJavier/schooltimetable/pkg/store"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	loadCatalogFunc = model.CatalogFromJson // mockable
	migrateFunc     = store.Migrate         // mockable
	serveFunc       = (*api.Server).Listen  // mockable

	errHelp           = errors.New("help provided")
	errEphemeralStore = errors.New("the memory store is discarded when the command exits: configure the postgres store, or use serve")
)

type commandLine struct {
	catalogFile string
	grid        model.Grid
	httpAddr    string
	store       store.Store
	db          *sqlx.DB // nil unless the store is backed by Postgres
	ephemeral   bool     // The store lives only as long as the process
	timetabler  model.Timetabler
	logger      *zap.Logger
	out         io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  generate                 - regenerate the timetable of every class")
	fmt.Fprintln(cli.out, "  show -class ID           - print a class' timetable as a grid")
	fmt.Fprintln(cli.out, "  verify                   - check the committed timetable")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]   - run database migrations (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  serve                    - expose the timetable over HTTP")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	showCmd := flag.NewFlagSet("show", flag.ContinueOnError)
	showCmd.SetOutput(cli.out)
	showClass := showCmd.Int("class", -1, "The class ID, as listed in the catalog.")

	// Only serve keeps a memory store alive between generating and reading a timetable
	if cli.ephemeral && lo.Contains([]string{"generate", "show", "verify"}, args[1]) {
		return errEphemeralStore
	}

	switch args[1] {
	case "generate":
		return cli.generate(ctx)
	case "show":
		if err := showCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *showClass < 0 {
			showCmd.Usage()
			return errHelp
		}
		return cli.show(ctx, uint64(*showClass))
	case "verify":
		return cli.verify(ctx)
	case "migrate":
		if len(args) < 3 {
			fmt.Fprintln(cli.out, "Usage: migrate COMMAND [ARGS]")
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "serve":
		return cli.serve()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) generate(ctx context.Context) error {
	catalog, err := loadCatalogFunc(cli.catalogFile)
	if err != nil {
		return err
	}

	report, err := cli.timetabler.Build(ctx, catalog)
	if err != nil {
		return err
	}

	for _, classReport := range report.Classes {
		if classReport.Err != nil {
			fmt.Fprintf(cli.out, "%v: skipped (%v)\n", classReport.Class.Name, classReport.Err)
			continue
		}
		fmt.Fprintf(cli.out, "%v: %d lessons, %d conflicts, %d unfilled slots\n",
			classReport.Class.Name, classReport.Entries, classReport.Conflicts, classReport.Unfilled)
	}
	fmt.Fprintln(cli.out, "Timetable generated successfully.")
	return nil
}

func (cli *commandLine) show(ctx context.Context, classId uint64) error {
	catalog, err := loadCatalogFunc(cli.catalogFile)
	if err != nil {
		return err
	} else if classId >= uint64(len(catalog.Classes)) {
		return errors.Errorf("unknown class %d", classId)
	}

	entries, err := cli.store.ListByClass(ctx, classId)
	if err != nil {
		return err
	}
	view := model.BuildGridView(entries, cli.grid.Days)

	fmt.Fprintf(cli.out, "%v\n\n", catalog.Classes[classId].Name)
	writer := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "Period\t%v\n", strings.Join(view.Days, "\t"))
	for _, row := range view.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = "-"
			if cell != nil {
				cells[i] = catalog.Describe(model.TeachingAssignment{
					Teacher: cell.Teacher,
					Subject: cell.Subject,
					Class:   cell.Class,
					Room:    cell.Room,
				})
			}
		}
		fmt.Fprintf(writer, "%v\t%v\n", row.Period, strings.Join(cells, "\t"))
	}
	return writer.Flush()
}

func (cli *commandLine) verify(ctx context.Context) error {
	catalog, err := loadCatalogFunc(cli.catalogFile)
	if err != nil {
		return err
	}

	if err := cli.timetabler.Verify(ctx, catalog); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Timetable is valid.")
	return nil
}

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if cli.db == nil {
		return errors.New("migrations require the postgres store")
	}
	return migrateFunc(ctx, cli.db.DB, args[0], args[1:]...)
}

func (cli *commandLine) serve() error {
	catalog, err := loadCatalogFunc(cli.catalogFile)
	if err != nil {
		return err
	}
	server := api.NewServer(catalog, cli.grid, cli.store, cli.timetabler, cli.logger)
	return serveFunc(server, cli.httpAddr)
}
