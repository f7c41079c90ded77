package ps

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"

	"github.com/nickyhof/PlaygroundDB/core"
)

const deployTagPrefix = "deploy/"

func deployTag(project, deployment string) string {
	return deployTagPrefix + project + "/" + deployment
}

// Deploy freezes the current state of a project under a name. The deployment
// is an annotated tag on HEAD, so later saves do not change it.
func (persistence *Persistence) Deploy(project, deployment string, identity core.Identity, message string) (core.Deployment, error) {
	if err := validateName("project", project); err != nil {
		return core.Deployment{}, err
	}
	if err := validateName("deployment", deployment); err != nil {
		return core.Deployment{}, err
	}

	persistence.Lock()
	defer persistence.Unlock()

	if _, err := persistence.readManifest(project); err != nil {
		return core.Deployment{}, err
	}

	headRef, err := persistence.repo.Head()
	if err != nil {
		return core.Deployment{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	if message == "" {
		message = fmt.Sprintf("Deploying %s as %s", project, deployment)
	}

	tagger := object.Signature{
		Name:  identity.Name,
		Email: identity.Email,
		When:  time.Now(),
	}

	_, err = persistence.repo.CreateTag(deployTag(project, deployment), headRef.Hash(), &git.CreateTagOptions{
		Tagger:  &tagger,
		Message: message,
	})
	if err != nil {
		return core.Deployment{}, fmt.Errorf("failed to deploy %s: %w", deployment, err)
	}

	return core.Deployment{
		Name:          deployment,
		Project:       project,
		Message:       message,
		TransactionId: headRef.Hash().String(),
		When:          tagger.When,
	}, nil
}

// resolveDeployment returns the deployment metadata and the commit it points at.
func (persistence *Persistence) resolveDeployment(ref *plumbing.Reference, project, deployment string) (core.Deployment, *object.Commit, error) {
	result := core.Deployment{
		Name:    deployment,
		Project: project,
	}

	var commit *object.Commit

	tag, err := persistence.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		commit, err = tag.Commit()
		if err != nil {
			return result, nil, fmt.Errorf("failed to resolve deployment %s: %w", deployment, err)
		}
		result.Message = strings.TrimSpace(tag.Message)
		result.When = tag.Tagger.When
	case errors.Is(err, plumbing.ErrObjectNotFound):
		// lightweight tag
		commit, err = persistence.repo.CommitObject(ref.Hash())
		if err != nil {
			return result, nil, fmt.Errorf("failed to resolve deployment %s: %w", deployment, err)
		}
		result.When = commit.Committer.When
	default:
		return result, nil, fmt.Errorf("failed to resolve deployment %s: %w", deployment, err)
	}

	result.TransactionId = commit.Hash.String()
	return result, commit, nil
}

// ListDeployments returns a project's deployments, oldest first.
func (persistence *Persistence) ListDeployments(project string) ([]core.Deployment, error) {
	if err := validateName("project", project); err != nil {
		return nil, err
	}
	if err := persistence.ensureInitialized(); err != nil {
		return nil, err
	}

	persistence.RLock()
	defer persistence.RUnlock()

	tags, err := persistence.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer tags.Close()

	prefix := deployTag(project, "")

	var deployments []core.Deployment
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		name := strings.TrimPrefix(ref.Name().String(), "refs/tags/")
		if !strings.HasPrefix(name, prefix) {
			return nil
		}

		deployment, _, err := persistence.resolveDeployment(ref, project, strings.TrimPrefix(name, prefix))
		if err != nil {
			return err
		}
		deployments = append(deployments, deployment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(deployments, func(a, b core.Deployment) int {
		return a.When.Compare(b.When)
	})

	return deployments, nil
}

// LoadDeployment returns a deployment together with the tables it froze.
func (persistence *Persistence) LoadDeployment(project, deployment string) (core.Deployment, error) {
	if err := validateName("project", project); err != nil {
		return core.Deployment{}, err
	}
	if err := validateName("deployment", deployment); err != nil {
		return core.Deployment{}, err
	}
	if err := persistence.ensureInitialized(); err != nil {
		return core.Deployment{}, err
	}

	persistence.RLock()
	defer persistence.RUnlock()

	ref, err := persistence.repo.Tag(deployTag(project, deployment))
	if err != nil {
		return core.Deployment{}, fmt.Errorf("%w: %s/%s", ErrDeploymentNotFound, project, deployment)
	}

	result, commit, err := persistence.resolveDeployment(ref, project, deployment)
	if err != nil {
		return core.Deployment{}, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return core.Deployment{}, fmt.Errorf("failed to get tree: %w", err)
	}

	result.Tables, err = readTablesFrom(tree, project)
	if err != nil {
		return core.Deployment{}, err
	}

	return result, nil
}

// RestoreDeployment makes a deployment's tables the current state of the
// project. History is kept: the restore is a new commit.
func (persistence *Persistence) RestoreDeployment(project, deployment string, identity core.Identity) (Transaction, error) {
	deployed, err := persistence.LoadDeployment(project, deployment)
	if err != nil {
		return Transaction{}, err
	}

	return persistence.SaveProject(project, deployed.Tables, identity, fmt.Sprintf("Restoring deployment %s", deployment))
}
