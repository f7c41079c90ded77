package ps

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/storer"
)

type Transaction struct {
	Id      string    `json:"id"`
	When    time.Time `json:"when"`
	Author  string    `json:"author,omitempty"` // "Name <email>" format
	Message string    `json:"message,omitempty"`
}

func (transaction Transaction) String() string {
	return fmt.Sprintf("Transaction{Id: %s, When: %s, Author: %s}", transaction.Id, transaction.When, transaction.Author)
}

func formatAuthor(signature object.Signature) string {
	if signature.Name == "" && signature.Email == "" {
		return ""
	}
	return fmt.Sprintf("%s <%s>", signature.Name, signature.Email)
}

func transactionFromCommit(commit *object.Commit) Transaction {
	return Transaction{
		Id:      commit.Hash.String(),
		When:    commit.Committer.When,
		Author:  formatAuthor(commit.Author),
		Message: strings.TrimSpace(commit.Message),
	}
}

func (persistence *Persistence) LatestTransaction() Transaction {
	if !persistence.IsInitialized() {
		return Transaction{}
	}

	headRef, err := persistence.repo.Head()
	if err != nil || headRef == nil {
		// No commits yet
		return Transaction{}
	}

	commit, err := persistence.repo.CommitObject(headRef.Hash())
	if err != nil {
		return Transaction{}
	}

	return transactionFromCommit(commit)
}

// History lists the commits that touched a project, newest first. A limit of
// zero or less returns all of them.
func (persistence *Persistence) History(project string, limit int) ([]Transaction, error) {
	if err := persistence.ensureInitialized(); err != nil {
		return nil, err
	}

	if _, err := persistence.repo.Head(); err != nil {
		return nil, nil
	}

	manifest := manifestPath(project)
	prefix := project + "/"

	cIter, err := persistence.repo.Log(&git.LogOptions{
		PathFilter: func(path string) bool {
			return path == manifest || strings.HasPrefix(path, prefix)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer cIter.Close()

	var transactions []Transaction
	err = cIter.ForEach(func(c *object.Commit) error {
		transactions = append(transactions, transactionFromCommit(c))
		if limit > 0 && len(transactions) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return transactions, nil
}
