package tests

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-git/go-git/v6"

	"github.com/nickyhof/PlaygroundDB"
	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/db"
	"github.com/nickyhof/PlaygroundDB/dbml"
	"github.com/nickyhof/PlaygroundDB/ddl"
	"github.com/nickyhof/PlaygroundDB/export"
	"github.com/nickyhof/PlaygroundDB/ps"
)

var testIdentity = core.Identity{Name: "test", Email: "test@test.com"}

// TestFunc is the signature for test functions that work with any persistence
type TestFunc func(t *testing.T, instance *PlaygroundDB.Instance)

// runWithBothPersistence runs a test function with both memory and file persistence
func runWithBothPersistence(t *testing.T, testFunc TestFunc) {
	t.Run("Memory", func(t *testing.T) {
		persistence, err := ps.NewMemoryPersistence()
		if err != nil {
			t.Fatalf("Failed to initialize memory persistence: %v", err)
		}
		testFunc(t, PlaygroundDB.Open(persistence))
	})

	t.Run("File", func(t *testing.T) {
		persistence, err := ps.NewFilePersistence(t.TempDir(), nil)
		if err != nil {
			t.Fatalf("Failed to initialize file persistence: %v", err)
		}
		testFunc(t, PlaygroundDB.Open(persistence))
	})
}

func mustExecute(t *testing.T, instance *PlaygroundDB.Instance, project, script string) db.ExecuteResult {
	t.Helper()

	result, err := instance.Execute(project, testIdentity, script)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	for _, statement := range result.Results {
		if !statement.Success {
			t.Fatalf("Statement %q failed: %s", statement.Statement, statement.Error)
		}
	}
	return result
}

const tiendaDBML = `Table clientes {
  id INT [pk, increment]
  email VARCHAR(255) [not null, unique]
}

Table pedidos {
  id INT [pk, increment]
  cliente_id INT [ref: > clientes.id]
  total DECIMAL(10,2)
}
`

// TestDBMLWorkflow designs a schema in DBML, fills it with SQL and renders it back
func TestDBMLWorkflow(t *testing.T) {
	runWithBothPersistence(t, func(t *testing.T, instance *PlaygroundDB.Instance) {
		tables, err := dbml.Parse(tiendaDBML, nil)
		if err != nil {
			t.Fatalf("Failed to parse DBML: %v", err)
		}

		project := instance.Project("tienda")
		if _, err := project.Save(tables, testIdentity, "Import DBML"); err != nil {
			t.Fatalf("Failed to save project: %v", err)
		}

		mustExecute(t, instance, "tienda", `
			INSERT INTO clientes (email) VALUES ('ana@example.com'), ('luis@example.com');
			INSERT INTO pedidos (cliente_id, total) VALUES (2, 19.5);
		`)

		stored, err := project.Tables()
		if err != nil {
			t.Fatalf("Failed to load tables: %v", err)
		}
		if dbml.Generate(stored) != tiendaDBML {
			t.Errorf("Expected DBML to survive the round trip, got:\n%s", dbml.Generate(stored))
		}

		pedidos := stored[core.FindTable(stored, "pedidos")]
		expected := []core.Row{{"id": 1.0, "cliente_id": 2.0, "total": 19.5}}
		if !reflect.DeepEqual(pedidos.Rows, expected) {
			t.Errorf("Expected %v, got %v", expected, pedidos.Rows)
		}

		// Re-importing the same DBML keeps ids and rows
		reparsed, err := dbml.Parse(tiendaDBML, stored)
		if err != nil {
			t.Fatalf("Failed to reparse DBML: %v", err)
		}
		if reparsed[0].ID != stored[0].ID || len(reparsed[0].Rows) != 2 {
			t.Errorf("Expected clientes to keep id and rows, got %+v", reparsed[0])
		}
	})
}

// TestDDLToSQLiteExport imports a DDL script, adds data and exports to SQLite
func TestDDLToSQLiteExport(t *testing.T) {
	tables, err := ddl.Import(`
		CREATE TABLE paises (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nombre TEXT NOT NULL UNIQUE
		);
		CREATE TABLE ciudades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pais_id INTEGER REFERENCES paises(id),
			nombre TEXT
		);
	`)
	if err != nil {
		t.Fatalf("Failed to import DDL: %v", err)
	}

	result := db.NewEngine(tables).Execute(`
		INSERT INTO paises (nombre) VALUES ('Chile'), ('Peru');
		INSERT INTO ciudades (pais_id, nombre) VALUES (1, 'Santiago'), (2, 'Lima'), (1, 'Valparaiso');
	`)
	if result.Failures() > 0 {
		t.Fatalf("Inserts failed: %+v", result.Results)
	}

	sqlite, err := export.OpenSQLite(filepath.Join(t.TempDir(), "export.db"))
	if err != nil {
		t.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqlite.Close()

	ctx := context.Background()
	if err := export.ToSQLite(ctx, sqlite, result.UpdatedTables); err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	var ciudades []string
	err = sqlite.SelectContext(ctx, &ciudades, `
		SELECT c.nombre FROM ciudades c JOIN paises p ON p.id = c.pais_id
		WHERE p.nombre = 'Chile' ORDER BY c.id`)
	if err != nil {
		t.Fatalf("Failed to query export: %v", err)
	}
	if !reflect.DeepEqual(ciudades, []string{"Santiago", "Valparaiso"}) {
		t.Errorf("Unexpected cities: %v", ciudades)
	}
}

// TestSnapshotBetweenProjects copies one project into another through a snapshot file
func TestSnapshotBetweenProjects(t *testing.T) {
	runWithBothPersistence(t, func(t *testing.T, instance *PlaygroundDB.Instance) {
		if _, err := instance.Bootstrap("origen", testIdentity); err != nil {
			t.Fatalf("Failed to bootstrap: %v", err)
		}
		mustExecute(t, instance, "origen", "INSERT INTO usuarios (nombre) VALUES ('Ana')")

		tables, err := instance.Project("origen").Tables()
		if err != nil {
			t.Fatalf("Failed to load tables: %v", err)
		}

		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "snapshot.json")
		if err := db.ExportSnapshot(ctx, path, tables, nil); err != nil {
			t.Fatalf("Failed to export snapshot: %v", err)
		}
		imported, err := db.ImportSnapshot(ctx, path, nil)
		if err != nil {
			t.Fatalf("Failed to import snapshot: %v", err)
		}

		if _, err := instance.Project("copia").Save(imported, testIdentity, "Load snapshot"); err != nil {
			t.Fatalf("Failed to save copy: %v", err)
		}

		result := mustExecute(t, instance, "copia", "SELECT nombre FROM usuarios ORDER BY id")
		data := result.Results[0].Data
		if len(data) != 2 || data[0]["nombre"] != "Lucas Roman" || data[1]["nombre"] != "Ana" {
			t.Errorf("Unexpected rows in copy: %v", data)
		}
	})
}

// TestDeployAndRestoreWorkflow deploys, breaks the schema and restores it
func TestDeployAndRestoreWorkflow(t *testing.T) {
	runWithBothPersistence(t, func(t *testing.T, instance *PlaygroundDB.Instance) {
		if _, err := instance.Bootstrap("demo", testIdentity); err != nil {
			t.Fatalf("Failed to bootstrap: %v", err)
		}
		project := instance.Project("demo")

		if _, err := project.Deploy("v1", testIdentity, "first release"); err != nil {
			t.Fatalf("Failed to deploy: %v", err)
		}

		mustExecute(t, instance, "demo", "DROP TABLE usuarios; CREATE TABLE notas (id INT, texto TEXT)")
		names, _ := project.TableNames()
		if !reflect.DeepEqual(names, []string{"notas"}) {
			t.Fatalf("Expected only notas, got %v", names)
		}

		if _, err := project.Restore("v1", testIdentity); err != nil {
			t.Fatalf("Failed to restore: %v", err)
		}
		names, _ = project.TableNames()
		if !reflect.DeepEqual(names, []string{"usuarios"}) {
			t.Errorf("Expected usuarios after restore, got %v", names)
		}

		deployments, err := project.Deployments()
		if err != nil || len(deployments) != 1 || deployments[0].Name != "v1" {
			t.Errorf("Unexpected deployments: %+v, %v", deployments, err)
		}

		history, err := project.History(0)
		if err != nil {
			t.Fatalf("Failed to read history: %v", err)
		}
		if len(history) < 3 {
			t.Errorf("Expected create, change and restore commits, got %d", len(history))
		}
	})
}

// TestRemoteSync pushes projects to a bare repository, edits a clone and pulls back
func TestRemoteSync(t *testing.T) {
	remoteDir := t.TempDir()
	if _, err := git.PlainInit(remoteDir, true); err != nil {
		t.Fatalf("Failed to init bare repository: %v", err)
	}

	local, err := ps.NewFilePersistence(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to initialize persistence: %v", err)
	}
	instance := PlaygroundDB.Open(local)
	if _, err := instance.Bootstrap("demo", testIdentity); err != nil {
		t.Fatalf("Failed to bootstrap: %v", err)
	}
	if err := local.AddRemote("origin", remoteDir); err != nil {
		t.Fatalf("Failed to add remote: %v", err)
	}
	if err := local.Push("", nil); err != nil {
		t.Fatalf("Failed to push: %v", err)
	}

	clonePersistence, err := ps.NewFilePersistence(t.TempDir(), &remoteDir)
	if err != nil {
		t.Fatalf("Failed to clone: %v", err)
	}
	clone := PlaygroundDB.Open(clonePersistence)
	mustExecute(t, clone, "demo", "INSERT INTO usuarios (nombre) VALUES ('Desde el clon')")
	if err := clonePersistence.Push("origin", nil); err != nil {
		t.Fatalf("Failed to push from clone: %v", err)
	}

	if err := local.Pull("", nil); err != nil {
		t.Fatalf("Failed to pull: %v", err)
	}
	result := mustExecute(t, instance, "demo", "SELECT nombre FROM usuarios WHERE id = 2")
	if data := result.Results[0].Data; len(data) != 1 || data[0]["nombre"] != "Desde el clon" {
		t.Errorf("Expected the pulled row, got %v", data)
	}
}
