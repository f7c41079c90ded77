package ps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-git/v6/plumbing/object"

	"github.com/nickyhof/PlaygroundDB/core"
)

// Project names and table ids become path components in the repository.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

func validateName(kind, name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %s '%s'", ErrInvalidName, kind, name)
	}
	return nil
}

func manifestPath(project string) string {
	return project + ".project"
}

func tablePath(project, id string) string {
	return path.Join(project, id+".table")
}

// SaveProject replaces the stored tables of a project in one commit. Tables
// without an id get one. Tables missing from the list are removed. Saving
// unchanged tables makes no commit and returns an empty Transaction.
func (persistence *Persistence) SaveProject(name string, tables []core.Table, identity core.Identity, message string) (Transaction, error) {
	if err := validateName("project", name); err != nil {
		return Transaction{}, err
	}

	persistence.Lock()
	defer persistence.Unlock()

	now := time.Now().UTC()
	project := core.Project{Name: name, CreatedAt: now, UpdatedAt: now}
	existing, err := persistence.readManifest(name)
	unchanged := err == nil
	if unchanged {
		project.CreatedAt = existing.CreatedAt
	}
	project.Tables = make([]string, 0, len(tables))

	txn, err := persistence.BeginTransaction()
	if err != nil {
		return Transaction{}, err
	}

	// Rewriting the directory drops files of removed tables.
	if err := txn.AddDelete(name); err != nil {
		return Transaction{}, err
	}

	for _, table := range tables {
		table = table.Clone()
		if table.ID == "" {
			table.ID = core.NewTableID()
		}
		if err := validateName("table id", table.ID); err != nil {
			txn.Rollback()
			return Transaction{}, err
		}
		if slices.Contains(project.Tables, table.ID) {
			txn.Rollback()
			return Transaction{}, fmt.Errorf("%w: duplicate table id '%s'", ErrInvalidName, table.ID)
		}

		data, err := json.Marshal(table)
		if err != nil {
			txn.Rollback()
			return Transaction{}, fmt.Errorf("failed to marshal table: %w", err)
		}
		if err := txn.AddWrite(tablePath(name, table.ID), data); err != nil {
			return Transaction{}, err
		}
		project.Tables = append(project.Tables, table.ID)

		if unchanged {
			stored, err := persistence.ReadFileDirect(tablePath(name, table.ID))
			unchanged = err == nil && bytes.Equal(stored, data)
		}
	}

	// An identical save keeps the manifest as is, so no commit is made.
	if unchanged && slices.Equal(existing.Tables, project.Tables) {
		project.UpdatedAt = existing.UpdatedAt
	}

	data, err := json.Marshal(project)
	if err != nil {
		txn.Rollback()
		return Transaction{}, fmt.Errorf("failed to marshal project: %w", err)
	}
	if err := txn.AddWrite(manifestPath(name), data); err != nil {
		return Transaction{}, err
	}

	if message == "" {
		message = fmt.Sprintf("Saving project %s", name)
	}
	return txn.Commit(identity, message)
}

// readManifest reads a project manifest from HEAD.
func (persistence *Persistence) readManifest(name string) (core.Project, error) {
	if err := persistence.ensureInitialized(); err != nil {
		return core.Project{}, err
	}

	tree, err := persistence.headTree()
	if err != nil {
		return core.Project{}, err
	}

	return readManifestFrom(tree, name)
}

func readManifestFrom(tree *object.Tree, name string) (core.Project, error) {
	var project core.Project

	if tree == nil {
		return project, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}

	data, err := readTreeFile(tree, manifestPath(name))
	if err != nil {
		return project, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}

	if err := json.Unmarshal(data, &project); err != nil {
		return project, fmt.Errorf("failed to unmarshal project: %w", err)
	}

	return project, nil
}

// readTablesFrom reads a project's tables, in manifest order, from a tree.
func readTablesFrom(tree *object.Tree, name string) ([]core.Table, error) {
	project, err := readManifestFrom(tree, name)
	if err != nil {
		return nil, err
	}

	tables := make([]core.Table, 0, len(project.Tables))
	for _, id := range project.Tables {
		data, err := readTreeFile(tree, tablePath(name, id))
		if err != nil {
			return nil, fmt.Errorf("table %s of project %s: %w", id, name, err)
		}

		var table core.Table
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to unmarshal table: %w", err)
		}
		tables = append(tables, table.Clone())
	}

	return tables, nil
}

// GetProject returns the manifest of a project.
func (persistence *Persistence) GetProject(name string) (core.Project, error) {
	if err := validateName("project", name); err != nil {
		return core.Project{}, err
	}

	persistence.RLock()
	defer persistence.RUnlock()

	return persistence.readManifest(name)
}

// LoadProject returns the tables of a project in manifest order.
func (persistence *Persistence) LoadProject(name string) ([]core.Table, error) {
	if err := validateName("project", name); err != nil {
		return nil, err
	}
	if err := persistence.ensureInitialized(); err != nil {
		return nil, err
	}

	persistence.RLock()
	defer persistence.RUnlock()

	tree, err := persistence.headTree()
	if err != nil {
		return nil, err
	}

	return readTablesFrom(tree, name)
}

// ProjectExists reports whether a project has a manifest.
func (persistence *Persistence) ProjectExists(name string) bool {
	_, err := persistence.GetProject(name)
	return err == nil
}

// ListProjects returns the stored project names, sorted.
func (persistence *Persistence) ListProjects() []string {
	persistence.RLock()
	defer persistence.RUnlock()

	entries, err := persistence.ListEntriesDirect(".")
	if err != nil {
		return nil
	}

	var projects []string
	for _, entry := range entries {
		if !entry.IsDir && strings.HasSuffix(entry.Name, ".project") {
			projects = append(projects, strings.TrimSuffix(entry.Name, ".project"))
		}
	}
	slices.Sort(projects)

	return projects
}

// DropProject removes a project's manifest and tables. Deployments are tags
// and survive.
func (persistence *Persistence) DropProject(name string, identity core.Identity) (Transaction, error) {
	if err := validateName("project", name); err != nil {
		return Transaction{}, err
	}

	persistence.Lock()
	defer persistence.Unlock()

	if _, err := persistence.readManifest(name); err != nil {
		return Transaction{}, err
	}

	txn, err := persistence.BeginTransaction()
	if err != nil {
		return Transaction{}, err
	}
	txn.AddDelete(manifestPath(name))
	txn.AddDelete(name)

	return txn.Commit(identity, fmt.Sprintf("Dropping project %s", name))
}
