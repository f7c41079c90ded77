package db

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/sql"
)

// StatementResult is the outcome of one statement of a script.
type StatementResult struct {
	Success      bool       `json:"success"`
	Command      string     `json:"command,omitempty"`
	Data         []core.Row `json:"data,omitempty"`
	Columns      []string   `json:"columns,omitempty"`
	Message      string     `json:"message"`
	Error        string     `json:"error,omitempty"`
	AffectedRows *int       `json:"affectedRows,omitempty"`
	Statement    string     `json:"statement"`

	ExecutionTimeSec float64 `json:"-"`
	Err              error   `json:"-"`
}

// MarshalJSON always writes data for a successful SELECT, even when no
// rows matched.
func (result StatementResult) MarshalJSON() ([]byte, error) {
	type plain StatementResult
	out := struct {
		plain
		Data *[]core.Row `json:"data,omitempty"`
	}{plain: plain(result)}

	if result.Data != nil {
		out.Data = &result.Data
	} else if result.Success && result.Command == sql.SelectStatementType.String() {
		out.Data = &[]core.Row{}
	}
	return json.Marshal(out)
}

// ExecuteResult holds the per-statement results of a script and the table
// list as it stands after the last statement.
type ExecuteResult struct {
	Results       []StatementResult `json:"results"`
	UpdatedTables []core.Table      `json:"updatedTables"`
}

// Modified reports whether any statement other than SELECT succeeded.
func (result ExecuteResult) Modified() bool {
	for _, statementResult := range result.Results {
		if statementResult.Success && statementResult.Command != sql.SelectStatementType.String() {
			return true
		}
	}
	return false
}

func (result ExecuteResult) Failures() int {
	failures := 0
	for _, statementResult := range result.Results {
		if !statementResult.Success {
			failures++
		}
	}
	return failures
}

func affected(n int) *int {
	return &n
}

func failure(statement string, command string, err error) StatementResult {
	return StatementResult{
		Success:   false,
		Command:   command,
		Message:   "execution error",
		Error:     err.Error(),
		Statement: statement,
		Err:       err,
	}
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	if secs < 0.001 {
		return "<1ms"
	} else if secs < 1 {
		ms := secs * 1000
		if ms < 10 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	} else if secs < 60 {
		if secs < 10 {
			return fmt.Sprintf("%.1fs", secs)
		}
		return fmt.Sprintf("%ds", int(secs))
	}
	mins := int(secs / 60)
	remainSecs := int(secs) % 60
	if remainSecs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm%ds", mins, remainSecs)
}

func (result StatementResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

// Display writes the result the way the REPL shows it.
func (result StatementResult) Display(w io.Writer) {
	if !result.Success {
		fmt.Fprintf(w, "Error: %s\n", result.Error)
		return
	}

	if result.Command == sql.SelectStatementType.String() {
		if len(result.Data) > 0 {
			table := NewTable(w)
			table.Header(result.Columns)
			for _, row := range result.Data {
				cells := make([]string, len(result.Columns))
				for i, column := range result.Columns {
					cells[i] = core.FormatValue(row.Get(column))
				}
				table.Row(cells)
			}
			table.Render()
		}
	}

	fmt.Fprintf(w, "%s (%s)\n", result.Message, result.ExecutionTime())
}

func (result ExecuteResult) Display(w io.Writer) {
	for i, statementResult := range result.Results {
		if len(result.Results) > 1 {
			fmt.Fprintf(w, "-- [%d] %s\n", i+1, abbreviate(statementResult.Statement, 60))
		}
		statementResult.Display(w)
	}
}

func abbreviate(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
