package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/nickyhof/PlaygroundDB"
	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/ps"
)

var (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

// CLI holds the CLI state
type CLI struct {
	instance *PlaygroundDB.Instance
	identity core.Identity
	project  string
	out      io.Writer
	done     bool
}

func main() {
	baseDir := flag.String("dir", os.Getenv("PLAYGROUND_DIR"), "Directory of the project store (memory if empty)")
	gitUrl := flag.String("gitUrl", os.Getenv("PLAYGROUND_GIT_URL"), "Git URL to clone the project store from")
	sqlFile := flag.String("sql", "", "SQL file to execute (non-interactive)")
	project := flag.String("project", "demo", "Project to open")
	userName := flag.String("name", "PlaygroundDB", "User name for commits")
	userEmail := flag.String("email", "cli@playground.local", "User email for commits")
	flag.Parse()

	interactive := isTerminal()
	if !interactive {
		disableColors()
	}

	persistence, err := openPersistence(*baseDir, *gitUrl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli := &CLI{
		instance: PlaygroundDB.Open(persistence),
		identity: core.Identity{Name: *userName, Email: *userEmail},
		out:      os.Stdout,
	}
	if err := cli.useProject(*project); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *sqlFile != "" {
		failures, err := cli.executeFile(*sqlFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error executing file: %v\n", err)
			os.Exit(1)
		}
		if failures > 0 {
			os.Exit(1)
		}
		return
	}

	if !interactive {
		script, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}
		if cli.execute(string(script)) > 0 {
			os.Exit(1)
		}
		return
	}

	printBanner(cli.out)
	if *baseDir == "" {
		fmt.Fprintf(cli.out, "%sUsing memory persistence%s\n", SuccessColor, ResetColor)
	} else {
		fmt.Fprintf(cli.out, "%sUsing file persistence: %s%s\n", SuccessColor, *baseDir, ResetColor)
	}

	if err := cli.run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openPersistence(baseDir, gitUrl string) (*ps.Persistence, error) {
	if baseDir == "" {
		return ps.NewMemoryPersistence()
	}

	var gitUrlPtr *string
	if gitUrl != "" {
		gitUrlPtr = &gitUrl
	}
	return ps.NewFilePersistence(baseDir, gitUrlPtr)
}

// isTerminal returns true if stdin is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func disableColors() {
	PromptColor, ErrorColor, SuccessColor, ResetColor, BoldColor = "", "", "", "", ""
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w)
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("PlaygroundDB v%s", Version)
	padding := bannerWidth - len(versionLine) - 2 // -2 for "  " margins
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Fprintf(w, "%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintf(w, "%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Fprintf(w, "%s%s║     SQL playground, saved in Git      ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintf(w, "%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Type .help for commands, .quit to exit")
	fmt.Fprintln(w)
}

var completions = []string{
	"SELECT", "FROM", "WHERE", "ORDER BY", "LIMIT", "OFFSET", "INSERT INTO", "VALUES",
	"UPDATE", "SET", "DELETE FROM", "CREATE TABLE", "DROP TABLE", "ALTER TABLE",
	"ADD COLUMN", "RENAME COLUMN", "PRIMARY KEY", "AUTOINCREMENT",
	"NOT NULL", "UNIQUE", "REFERENCES",
}

// createCompleter creates a readline completer for tab completion.
func createCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(completions)+len(commands))
	for _, command := range commands {
		for _, name := range command.names {
			items = append(items, readline.PcItem(name))
		}
	}
	for _, keyword := range completions {
		items = append(items, readline.PcItem(keyword))
	}
	return readline.NewPrefixCompleter(items...)
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".playgrounddb_history")
}

func (cli *CLI) run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cli.getPrompt(false),
		HistoryFile:       getHistoryPath(),
		AutoComplete:      createCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         ".quit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	var multiLineBuffer strings.Builder

	for !cli.done {
		rl.SetPrompt(cli.getPrompt(multiLineBuffer.Len() > 0))

		input, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			// Ctrl+C drops the pending statement
			multiLineBuffer.Reset()
			continue
		}
		if err != nil {
			fmt.Fprintf(cli.out, "\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			return nil
		}

		if strings.TrimSpace(input) == "" {
			continue
		}

		if multiLineBuffer.Len() == 0 && strings.HasPrefix(strings.TrimSpace(input), ".") {
			cli.handleCommand(input)
			continue
		}

		// Multi-line support: accumulate until we see a semicolon
		multiLineBuffer.WriteString(input)

		trimmed := strings.TrimSpace(multiLineBuffer.String())
		if !strings.HasSuffix(trimmed, ";") {
			multiLineBuffer.WriteString("\n")
			continue
		}

		multiLineBuffer.Reset()
		cli.execute(trimmed)
	}

	return nil
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}
	return fmt.Sprintf("%splayground (%s)>%s ", PromptColor, cli.project, ResetColor)
}

// execute runs a script against the current project, prints the results and
// returns the number of failed statements.
func (cli *CLI) execute(script string) int {
	result, err := cli.instance.Execute(cli.project, cli.identity, script)
	if err != nil {
		cli.printError(err)
		return 1
	}
	result.Display(cli.out)
	return result.Failures()
}

// executeFile runs a SQL file and prints a compact line per statement.
func (cli *CLI) executeFile(filename string) (int, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	result, err := cli.instance.Execute(cli.project, cli.identity, string(data))
	if err != nil {
		return 0, err
	}

	for i, statement := range result.Results {
		if statement.Success {
			fmt.Fprintf(cli.out, "%s[%d] ✓ %s (%s)%s\n", SuccessColor, i+1, truncate(statement.Statement, 50), statement.Message, ResetColor)
		} else {
			fmt.Fprintf(cli.out, "%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(statement.Statement, 50), ResetColor)
			fmt.Fprintf(cli.out, "      Error: %s\n", statement.Error)
		}
	}

	failures := result.Failures()
	fmt.Fprintf(cli.out, "\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, len(result.Results)-failures, failures, ResetColor)

	return failures, nil
}

func (cli *CLI) printError(err error) {
	fmt.Fprintf(cli.out, "%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
}

func (cli *CLI) printSuccess(format string, args ...any) {
	fmt.Fprintf(cli.out, "%s✓ %s%s\n", SuccessColor, fmt.Sprintf(format, args...), ResetColor)
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
