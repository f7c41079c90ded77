package op

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/db"
	"github.com/nickyhof/PlaygroundDB/ps"
	"github.com/nickyhof/PlaygroundDB/sql"
)

type ProjectOp struct {
	Name        string
	Persistence *ps.Persistence
}

func CreateProject(name string, tables []core.Table, persistence *ps.Persistence, identity core.Identity) (*ps.Transaction, *ProjectOp, error) {
	if persistence.ProjectExists(name) {
		return nil, nil, fmt.Errorf("project %s already exists", name)
	}

	txn, err := persistence.SaveProject(name, tables, identity, fmt.Sprintf("Creating project %s", name))
	if err != nil {
		return nil, nil, err
	}

	return &txn, &ProjectOp{
		Name:        name,
		Persistence: persistence,
	}, nil
}

func GetProject(name string, persistence *ps.Persistence) (*ProjectOp, error) {
	if _, err := persistence.GetProject(name); err != nil {
		return nil, err
	}
	return &ProjectOp{
		Name:        name,
		Persistence: persistence,
	}, nil
}

// Tables returns the stored tables. A project that was never saved has none.
func (op *ProjectOp) Tables() ([]core.Table, error) {
	tables, err := op.Persistence.LoadProject(op.Name)
	if errors.Is(err, ps.ErrProjectNotFound) {
		return []core.Table{}, nil
	}
	return tables, err
}

func (op *ProjectOp) TableNames() ([]string, error) {
	tables, err := op.Tables()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(tables))
	for i, table := range tables {
		names[i] = table.Name
	}
	return names, nil
}

func (op *ProjectOp) Table(name string) (*TableOp, error) {
	tables, err := op.Tables()
	if err != nil {
		return nil, err
	}

	index := core.FindTable(tables, name)
	if index < 0 {
		return nil, fmt.Errorf("table '%s' not found in project %s", name, op.Name)
	}

	return &TableOp{Table: tables[index]}, nil
}

// Execute runs a script against the stored tables and saves the result when
// a statement changed something. The transaction is nil when nothing was
// committed.
func (op *ProjectOp) Execute(script string, identity core.Identity) (db.ExecuteResult, *ps.Transaction, error) {
	tables, err := op.Tables()
	if err != nil {
		return db.ExecuteResult{}, nil, err
	}

	result := db.NewEngine(tables).Execute(script)
	if !result.Modified() {
		return result, nil, nil
	}

	txn, err := op.Save(result.UpdatedTables, identity, commitMessage(result))
	if err != nil {
		return result, nil, err
	}
	if txn.Id == "" {
		return result, nil, nil
	}

	return result, &txn, nil
}

// Save replaces the project's tables.
func (op *ProjectOp) Save(tables []core.Table, identity core.Identity, message string) (ps.Transaction, error) {
	return op.Persistence.SaveProject(op.Name, tables, identity, message)
}

// commitMessage lists the statement kinds that changed the project, e.g.
// "CREATE, INSERT x2".
func commitMessage(result db.ExecuteResult) string {
	var kinds []string
	counts := make(map[string]int)
	for _, statementResult := range result.Results {
		if !statementResult.Success || statementResult.Command == sql.SelectStatementType.String() {
			continue
		}
		if counts[statementResult.Command] == 0 {
			kinds = append(kinds, statementResult.Command)
		}
		counts[statementResult.Command]++
	}

	parts := make([]string, len(kinds))
	for i, kind := range kinds {
		parts[i] = kind
		if counts[kind] > 1 {
			parts[i] = fmt.Sprintf("%s x%d", kind, counts[kind])
		}
	}
	return strings.Join(parts, ", ")
}

func (op *ProjectOp) DropProject(identity core.Identity) (ps.Transaction, error) {
	return op.Persistence.DropProject(op.Name, identity)
}

func (op *ProjectOp) History(limit int) ([]ps.Transaction, error) {
	return op.Persistence.History(op.Name, limit)
}

func (op *ProjectOp) Deploy(name string, identity core.Identity, message string) (core.Deployment, error) {
	return op.Persistence.Deploy(op.Name, name, identity, message)
}

func (op *ProjectOp) Deployments() ([]core.Deployment, error) {
	return op.Persistence.ListDeployments(op.Name)
}

func (op *ProjectOp) Restore(deployment string, identity core.Identity) (ps.Transaction, error) {
	return op.Persistence.RestoreDeployment(op.Name, deployment, identity)
}
