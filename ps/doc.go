// Package ps provides the project store for PlaygroundDB.
//
// The store is a Git repository, using go-git for storage. Every save is a
// single commit, so each project has a full history.
//
// # Layout
//
// A project is a manifest plus one file per table:
//
//	demo.project          {"name": "demo", "tables": ["t-1", "t-2"], ...}
//	demo/t-1.table        {"id": "t-1", "name": "usuarios", "columns": [...], "rows": [...]}
//
// # Memory Persistence
//
// For testing or ephemeral stores:
//
//	persistence, err := ps.NewMemoryPersistence()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # File Persistence
//
// For persistent storage, optionally cloned from a remote:
//
//	persistence, err := ps.NewFilePersistence("/path/to/data", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Projects and Deployments
//
//	txn, _ := persistence.SaveProject("demo", tables, identity, "")
//	tables, _ := persistence.LoadProject("demo")
//	persistence.Deploy("demo", "v1", identity, "")
//	persistence.RestoreDeployment("demo", "v1", identity)
//
// Deployments are annotated tags named deploy/<project>/<name>. Push and
// Pull carry them along with the branch.
package ps
