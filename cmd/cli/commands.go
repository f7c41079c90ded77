package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/db"
	"github.com/nickyhof/PlaygroundDB/dbml"
	"github.com/nickyhof/PlaygroundDB/ddl"
	"github.com/nickyhof/PlaygroundDB/export"
	"github.com/nickyhof/PlaygroundDB/introspect"
	"github.com/nickyhof/PlaygroundDB/ps"
)

var errUsage = errors.New("usage")

type command struct {
	names []string
	usage string
	help  string
	run   func(cli *CLI, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{[]string{".help", ".h"}, ".help", "Show this help message", (*CLI).cmdHelp},
		{[]string{".quit", ".exit", ".q"}, ".quit", "Exit the CLI", (*CLI).cmdQuit},
		{[]string{".project"}, ".project [name]", "Show or switch the current project", (*CLI).cmdProject},
		{[]string{".projects"}, ".projects", "List all projects", (*CLI).cmdProjects},
		{[]string{".drop-project"}, ".drop-project <name>", "Delete a project other than the current one", (*CLI).cmdDropProject},
		{[]string{".tables"}, ".tables", "List tables of the current project", (*CLI).cmdTables},
		{[]string{".schema"}, ".schema [table]", "Show CREATE TABLE statements", (*CLI).cmdSchema},
		{[]string{".dbml"}, ".dbml", "Show the project as DBML", (*CLI).cmdDBML},
		{[]string{".import"}, ".import <file.sql>", "Execute SQL statements from a file", (*CLI).cmdImport},
		{[]string{".import-dbml"}, ".import-dbml <file>", "Replace the schema from a DBML file", (*CLI).cmdImportDBML},
		{[]string{".import-ddl"}, ".import-ddl <file>", "Import CREATE TABLE statements (SQLite dialect)", (*CLI).cmdImportDDL},
		{[]string{".import-pg"}, ".import-pg [schema]", "Import tables from Postgres at $DATABASE_URL", (*CLI).cmdImportPostgres},
		{[]string{".export-sqlite"}, ".export-sqlite <file>", "Write the project into a SQLite database", (*CLI).cmdExportSQLite},
		{[]string{".snapshot-save"}, ".snapshot-save <uri>", "Save tables to a file or s3:// URI", (*CLI).cmdSnapshotSave},
		{[]string{".snapshot-load"}, ".snapshot-load <uri>", "Load tables from a file, s3:// or http(s):// URI", (*CLI).cmdSnapshotLoad},
		{[]string{".deploy"}, ".deploy <name> [message]", "Deploy the current state", (*CLI).cmdDeploy},
		{[]string{".deployments"}, ".deployments", "List deployments", (*CLI).cmdDeployments},
		{[]string{".restore"}, ".restore <name>", "Restore a deployment", (*CLI).cmdRestore},
		{[]string{".history"}, ".history", "Show the project's commit history", (*CLI).cmdHistory},
		{[]string{".remote-add"}, ".remote-add <name> <url>", "Add a Git remote for the project store", (*CLI).cmdRemoteAdd},
		{[]string{".push"}, ".push [remote]", "Push projects and deployments", (*CLI).cmdPush},
		{[]string{".pull"}, ".pull [remote]", "Pull projects and deployments", (*CLI).cmdPull},
		{[]string{".clear", ".cls"}, ".clear", "Clear the screen", (*CLI).cmdClear},
		{[]string{".version"}, ".version", "Show version info", (*CLI).cmdVersion},
	}
}

func findCommand(name string) *command {
	for i := range commands {
		for _, alias := range commands[i].names {
			if alias == name {
				return &commands[i]
			}
		}
	}
	return nil
}

// handleCommand runs a dot command. Arguments keep their case.
func (cli *CLI) handleCommand(input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return true
	}

	name := strings.ToLower(parts[0])
	cmd := findCommand(name)
	if cmd == nil {
		fmt.Fprintf(cli.out, "%s✗ Unknown command: %s (type .help for commands)%s\n", ErrorColor, name, ResetColor)
		return true
	}

	if err := cmd.run(cli, parts[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(cli.out, "%s✗ Usage: %s%s\n", ErrorColor, cmd.usage, ResetColor)
		} else {
			cli.printError(err)
		}
	}
	return true
}

func (cli *CLI) cmdHelp(args []string) error {
	fmt.Fprintln(cli.out)
	fmt.Fprintf(cli.out, "%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	for _, cmd := range commands {
		fmt.Fprintf(cli.out, "  %-28s %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintln(cli.out)
	fmt.Fprintf(cli.out, "%s%sSQL Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(cli.out, "  CREATE TABLE <table> (<column> <type> [PRIMARY KEY] [AUTOINCREMENT], ...);")
	fmt.Fprintln(cli.out, "  DROP TABLE <table>;")
	fmt.Fprintln(cli.out, "  ALTER TABLE <table> ADD COLUMN <column> <type>;")
	fmt.Fprintln(cli.out, "  ALTER TABLE <table> RENAME COLUMN <old> TO <new>;")
	fmt.Fprintln(cli.out, "  INSERT INTO <table> (<cols>) VALUES (<vals>), ...;")
	fmt.Fprintln(cli.out, "  SELECT <cols> FROM <table> [WHERE ...] [ORDER BY ...] [LIMIT n [OFFSET m]];")
	fmt.Fprintln(cli.out, "  UPDATE <table> SET <col> = <val>, ... [WHERE ...];")
	fmt.Fprintln(cli.out, "  DELETE FROM <table> [WHERE ...];")
	fmt.Fprintln(cli.out)
	return nil
}

func (cli *CLI) cmdQuit(args []string) error {
	fmt.Fprintf(cli.out, "%sGoodbye!%s\n", SuccessColor, ResetColor)
	cli.done = true
	return nil
}

func (cli *CLI) cmdClear(args []string) error {
	fmt.Fprint(cli.out, "\033[H\033[2J")
	return nil
}

func (cli *CLI) cmdVersion(args []string) error {
	fmt.Fprintf(cli.out, "PlaygroundDB version %s\n", Version)
	return nil
}

// useProject switches to a project, seeding it when it is new.
func (cli *CLI) useProject(name string) error {
	created, err := cli.instance.Bootstrap(name, cli.identity)
	if err != nil {
		return err
	}
	cli.project = name
	if created {
		fmt.Fprintf(cli.out, "%s✓ Created project %s%s\n", SuccessColor, name, ResetColor)
	}
	return nil
}

func (cli *CLI) cmdProject(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(cli.out, cli.project)
		return nil
	}
	if err := cli.useProject(args[0]); err != nil {
		return err
	}
	cli.printSuccess("Using project: %s", cli.project)
	return nil
}

func (cli *CLI) cmdProjects(args []string) error {
	for _, name := range cli.instance.Persistence.ListProjects() {
		marker := " "
		if name == cli.project {
			marker = "*"
		}
		fmt.Fprintf(cli.out, "%s %s\n", marker, name)
	}
	return nil
}

func (cli *CLI) cmdDropProject(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if args[0] == cli.project {
		return fmt.Errorf("cannot drop the current project %s", args[0])
	}

	txn, err := cli.instance.Project(args[0]).DropProject(cli.identity)
	if err != nil {
		return err
	}
	cli.printSuccess("Dropped project %s (%s)", args[0], shortId(txn.Id))
	return nil
}

func (cli *CLI) tables() ([]core.Table, error) {
	return cli.instance.Project(cli.project).Tables()
}

// saveTables replaces the project's tables as one commit.
func (cli *CLI) saveTables(tables []core.Table, message string) error {
	txn, err := cli.instance.Project(cli.project).Save(tables, cli.identity, message)
	if err != nil {
		return err
	}
	if txn.Id == "" {
		cli.printSuccess("No changes")
		return nil
	}
	cli.printSuccess("%d table(s) saved (%s)", len(tables), shortId(txn.Id))
	return nil
}

func (cli *CLI) cmdTables(args []string) error {
	tables, err := cli.tables()
	if err != nil {
		return err
	}

	rows := make([][]string, len(tables))
	for i, table := range tables {
		rows[i] = []string{table.Name, fmt.Sprint(len(table.Columns)), fmt.Sprint(len(table.Rows))}
	}

	grid := db.NewTable(cli.out)
	grid.Header([]string{"table", "columns", "rows"})
	grid.Bulk(rows)
	grid.Render()
	return nil
}

func (cli *CLI) cmdSchema(args []string) error {
	tables, err := cli.tables()
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(tables))
	for _, table := range tables {
		known[strings.ToLower(table.Name)] = true
	}

	found := false
	for _, table := range tables {
		if len(args) > 0 && !strings.EqualFold(table.Name, args[0]) {
			continue
		}
		found = true
		fmt.Fprintf(cli.out, "%s;\n", export.CreateTableSQL(table, known))
	}
	if len(args) > 0 && !found {
		return fmt.Errorf("table '%s' not found", args[0])
	}
	return nil
}

func (cli *CLI) cmdDBML(args []string) error {
	tables, err := cli.tables()
	if err != nil {
		return err
	}
	fmt.Fprint(cli.out, dbml.Generate(tables))
	return nil
}

func (cli *CLI) cmdImport(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	_, err := cli.executeFile(args[0])
	return err
}

func (cli *CLI) cmdImportDBML(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	text, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	existing, err := cli.tables()
	if err != nil {
		return err
	}
	tables, err := dbml.Parse(string(text), existing)
	if err != nil {
		return err
	}
	return cli.saveTables(tables, "Importing DBML")
}

func (cli *CLI) cmdImportDDL(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	script, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	imported, err := ddl.Import(string(script))
	if err != nil {
		return err
	}
	return cli.importTables(imported, "Importing DDL")
}

func (cli *CLI) cmdImportPostgres(args []string) error {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return errors.New("DATABASE_URL is not set")
	}

	opts := []introspect.Option{introspect.WithRows(100)}
	if len(args) > 0 {
		opts = append(opts, introspect.WithSchema(args[0]))
	}

	ctx := context.Background()
	conn, err := introspect.Connect(ctx, url)
	if err != nil {
		return err
	}
	defer conn.Close()

	imported, err := introspect.Postgres(ctx, conn, opts...)
	if err != nil {
		return err
	}
	return cli.importTables(imported, "Importing Postgres schema")
}

// importTables adds imported tables to the project. A table with the same
// name is replaced but keeps its id and position.
func (cli *CLI) importTables(imported []core.Table, message string) error {
	tables, err := cli.tables()
	if err != nil {
		return err
	}
	return cli.saveTables(mergeTables(tables, imported), message)
}

func mergeTables(tables, imported []core.Table) []core.Table {
	merged := core.CloneTables(tables)
	for _, table := range imported {
		if i := core.FindTable(merged, table.Name); i >= 0 {
			table.ID = merged[i].ID
			table.Position = merged[i].Position
			merged[i] = table
			continue
		}
		merged = append(merged, table)
	}
	return merged
}

func (cli *CLI) cmdExportSQLite(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	tables, err := cli.tables()
	if err != nil {
		return err
	}

	conn, err := export.OpenSQLite(args[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := export.ToSQLite(context.Background(), conn, tables); err != nil {
		return err
	}
	cli.printSuccess("Exported %d table(s) to %s", len(tables), args[0])
	return nil
}

func s3Options() *db.S3Options {
	return &db.S3Options{
		AccessKey: os.Getenv("PLAYGROUND_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("PLAYGROUND_S3_SECRET_KEY"),
		Endpoint:  os.Getenv("PLAYGROUND_S3_ENDPOINT"),
	}
}

func (cli *CLI) cmdSnapshotSave(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	tables, err := cli.tables()
	if err != nil {
		return err
	}
	if err := db.ExportSnapshot(context.Background(), args[0], tables, s3Options()); err != nil {
		return err
	}
	cli.printSuccess("Saved %d table(s) to %s", len(tables), args[0])
	return nil
}

func (cli *CLI) cmdSnapshotLoad(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	tables, err := db.ImportSnapshot(context.Background(), args[0], s3Options())
	if err != nil {
		return err
	}
	return cli.saveTables(tables, fmt.Sprintf("Loading snapshot %s", args[0]))
}

func (cli *CLI) cmdDeploy(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	deployment, err := cli.instance.Project(cli.project).Deploy(args[0], cli.identity, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	cli.printSuccess("Deployed %s as %s (%s)", cli.project, deployment.Name, shortId(deployment.TransactionId))
	return nil
}

func (cli *CLI) cmdDeployments(args []string) error {
	deployments, err := cli.instance.Project(cli.project).Deployments()
	if err != nil {
		return err
	}
	if len(deployments) == 0 {
		fmt.Fprintln(cli.out, "No deployments")
		return nil
	}

	grid := db.NewTable(cli.out)
	grid.Header([]string{"name", "when", "commit", "message"})
	for _, deployment := range deployments {
		grid.Row([]string{
			deployment.Name,
			deployment.When.Format("2006-01-02 15:04:05"),
			shortId(deployment.TransactionId),
			deployment.Message,
		})
	}
	grid.Render()
	return nil
}

func (cli *CLI) cmdRestore(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	txn, err := cli.instance.Project(cli.project).Restore(args[0], cli.identity)
	if err != nil {
		return err
	}
	if txn.Id == "" {
		cli.printSuccess("Already at deployment %s", args[0])
		return nil
	}
	cli.printSuccess("Restored deployment %s (%s)", args[0], shortId(txn.Id))
	return nil
}

func (cli *CLI) cmdHistory(args []string) error {
	history, err := cli.instance.Project(cli.project).History(20)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Fprintln(cli.out, "No history")
		return nil
	}
	for _, txn := range history {
		fmt.Fprintf(cli.out, "%s  %s  %-24s %s\n", shortId(txn.Id), txn.When.Format("2006-01-02 15:04:05"), txn.Author, txn.Message)
	}
	return nil
}

func (cli *CLI) cmdRemoteAdd(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	if err := cli.instance.Persistence.AddRemote(args[0], args[1]); err != nil {
		return err
	}
	cli.printSuccess("Added remote %s", args[0])
	return nil
}

// remoteAuth uses PLAYGROUND_GIT_TOKEN when it is set.
func remoteAuth() *ps.RemoteAuth {
	if token := os.Getenv("PLAYGROUND_GIT_TOKEN"); token != "" {
		return &ps.RemoteAuth{Type: ps.AuthTypeToken, Token: token}
	}
	return nil
}

func remoteName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "origin"
}

func (cli *CLI) cmdPush(args []string) error {
	remote := remoteName(args)
	if err := cli.instance.Persistence.Push(remote, remoteAuth()); err != nil {
		return err
	}
	cli.printSuccess("Pushed to %s", remote)
	return nil
}

func (cli *CLI) cmdPull(args []string) error {
	remote := remoteName(args)
	if err := cli.instance.Persistence.Pull(remote, remoteAuth()); err != nil {
		return err
	}
	cli.printSuccess("Pulled from %s", remote)
	return nil
}

func shortId(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
