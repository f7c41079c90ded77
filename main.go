package PlaygroundDB

import (
	"sync"

	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/db"
	"github.com/nickyhof/PlaygroundDB/op"
	"github.com/nickyhof/PlaygroundDB/ps"
)

type Instance struct {
	Persistence *ps.Persistence

	// held for a whole load-run-save cycle
	mu sync.Mutex
}

func Open(persistence *ps.Persistence) *Instance {
	return &Instance{
		Persistence: persistence,
	}
}

func (instance *Instance) Project(name string) *op.ProjectOp {
	return &op.ProjectOp{
		Name:        name,
		Persistence: instance.Persistence,
	}
}

// Execute runs a script against a project and saves the outcome. Statement
// failures are reported in the result; the error is for storage failures.
func (instance *Instance) Execute(project string, identity core.Identity, script string) (db.ExecuteResult, error) {
	instance.mu.Lock()
	defer instance.mu.Unlock()

	result, _, err := instance.Project(project).Execute(script, identity)
	return result, err
}

// BoilerplateTables is the starting point of a new project.
func BoilerplateTables() []core.Table {
	position := core.DefaultPosition
	return []core.Table{{
		ID:   core.NewTableID(),
		Name: "usuarios",
		Columns: []core.Column{
			{Name: "id", Type: "INT", IsPrimary: true, AutoIncrement: true},
			{Name: "nombre", Type: "TEXT"},
		},
		Rows:     []core.Row{{"id": 1.0, "nombre": "Lucas Roman"}},
		Position: &position,
	}}
}

// Bootstrap seeds a project that does not exist yet with the boilerplate
// tables. It reports whether anything was written.
func (instance *Instance) Bootstrap(project string, identity core.Identity) (bool, error) {
	instance.mu.Lock()
	defer instance.mu.Unlock()

	if instance.Persistence.ProjectExists(project) {
		return false, nil
	}

	_, _, err := op.CreateProject(project, BoilerplateTables(), instance.Persistence, identity)
	if err != nil {
		return false, err
	}
	return true, nil
}
