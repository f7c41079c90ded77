package main

import (
	"encoding/json"
	"sync"

	"github.com/nickyhof/PlaygroundDB"
	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/db"
	"github.com/nickyhof/PlaygroundDB/ps"
)

var bindingIdentity = core.Identity{
	Name:  "PlaygroundDB Bindings",
	Email: "bindings@playgrounddb.local",
}

// Response mirrors the server protocol for consistency
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

var (
	handlesMu  sync.Mutex
	handles    = make(map[int]*PlaygroundDB.Instance)
	nextHandle = 1
)

func register(instance *PlaygroundDB.Instance) int {
	handlesMu.Lock()
	defer handlesMu.Unlock()

	handle := nextHandle
	nextHandle++
	handles[handle] = instance
	return handle
}

func lookup(handle int) (*PlaygroundDB.Instance, bool) {
	handlesMu.Lock()
	defer handlesMu.Unlock()

	instance, ok := handles[handle]
	return instance, ok
}

func openMemory() int {
	persistence, err := ps.NewMemoryPersistence()
	if err != nil {
		return -1
	}
	return register(PlaygroundDB.Open(persistence))
}

func openFile(path string) int {
	persistence, err := ps.NewFilePersistence(path, nil)
	if err != nil {
		return -1
	}
	return register(PlaygroundDB.Open(persistence))
}

func closeHandle(handle int) {
	handlesMu.Lock()
	defer handlesMu.Unlock()

	delete(handles, handle)
}

// executeJSON runs a script against a JSON table list without any storage.
func executeJSON(tablesJSON string, script string) []byte {
	var tables []core.Table
	if tablesJSON != "" {
		if err := json.Unmarshal([]byte(tablesJSON), &tables); err != nil {
			return errorResponse("invalid tables: " + err.Error())
		}
	}

	return resultResponse(db.NewEngine(tables).Execute(script))
}

func runJSON(handle int, project string, script string) []byte {
	instance, ok := lookup(handle)
	if !ok {
		return errorResponse("Invalid handle")
	}

	result, err := instance.Execute(project, bindingIdentity, script)
	if err != nil {
		return errorResponse(err.Error())
	}
	return resultResponse(result)
}

func resultResponse(result db.ExecuteResult) []byte {
	data, err := json.Marshal(result)
	if err != nil {
		return errorResponse(err.Error())
	}

	jsonData, _ := json.Marshal(Response{
		Success: true,
		Type:    "result",
		Result:  data,
	})
	return jsonData
}

func errorResponse(msg string) []byte {
	jsonData, _ := json.Marshal(Response{
		Success: false,
		Error:   msg,
	})
	return jsonData
}
