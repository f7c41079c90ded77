// Package main provides a TCP SQL server for PlaygroundDB projects.
package main

import (
	"encoding/json"
	"strings"
)

// Request runs a script against a project. Project falls back to the
// server's default project when empty.
type Request struct {
	Project string `json:"project,omitempty"`
	Query   string `json:"query"`
}

// Response represents the server's response to a request.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"` // "result" or "auth"
	Result  json.RawMessage `json:"result,omitempty"`
}

// AuthResponse is the result of a successful AUTH command.
type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity"`
	ExpiresIn     int    `json:"expires_in,omitempty"` // seconds
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeRequest parses one request line. A line that is not a JSON object
// is taken as a bare script for the default project.
func DecodeRequest(data []byte) (Request, error) {
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, "{") {
		return Request{Query: line}, nil
	}

	var req Request
	err := json.Unmarshal([]byte(line), &req)
	return req, err
}
