package core

import "time"

// Project is the manifest of a playground project: its tables in display order.
type Project struct {
	Name      string    `json:"name"`
	Tables    []string  `json:"tables"` // table ids
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Deployment is a frozen copy of a project's tables.
type Deployment struct {
	Name          string    `json:"name"`
	Project       string    `json:"project"`
	Message       string    `json:"message,omitempty"`
	TransactionId string    `json:"transaction_id"`
	When          time.Time `json:"when"`
	Tables        []Table   `json:"tables,omitempty"`
}
