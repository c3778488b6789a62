// Package tools implements the Tool Executor: the closed set of file
// operations exposed to the Generation Pipeline's AI loop, bound to a
// single workspace. Every tool delegates to the Workspace Store, so it
// inherits that store's path-safety contract. A failing tool returns a
// structured error result rather than raising, so the AI loop can observe
// the failure and adapt instead of the whole turn aborting.
package tools

import (
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/samansalari/seenovate-appforge/internal/workspace"
)

// Name enumerates the closed set of tools the pipeline may invoke.
type Name string

const (
	WriteFile  Name = "writeFile"
	ReadFile   Name = "readFile"
	ListFiles  Name = "listFiles"
	DeleteFile Name = "deleteFile"
)

// Executor dispatches tool calls against a single workspace's Store.
type Executor struct {
	store *workspace.Store
}

// New binds an Executor to store.
func New(store *workspace.Store) *Executor {
	return &Executor{store: store}
}

// Call dispatches a tool invocation. argsJSON is the raw JSON object the
// model produced for the call; the result is returned as a JSON object
// string shaped per tool (always carrying "success", plus tool-specific
// fields). Call never returns a Go error for a tool-domain failure — those
// are reported as {"success": false, "error": "..."} so the AI loop can
// observe and adapt; a non-nil error here means the tool name itself is
// unrecognized.
func (e *Executor) Call(name Name, argsJSON string) (string, error) {
	switch name {
	case WriteFile:
		return e.writeFile(argsJSON), nil
	case ReadFile:
		return e.readFile(argsJSON), nil
	case ListFiles:
		return e.listFiles(argsJSON), nil
	case DeleteFile:
		return e.deleteFile(argsJSON), nil
	default:
		return "", &UnknownToolError{Name: name}
	}
}

// UnknownToolError is returned by Call for a tool name outside the closed
// set the pipeline may invoke.
type UnknownToolError struct{ Name Name }

func (e *UnknownToolError) Error() string { return "tools: unknown tool " + string(e.Name) }

func errResult(path, msg string) string {
	out, _ := sjson.Set(`{}`, "success", false)
	if path != "" {
		out, _ = sjson.Set(out, "path", path)
	}
	out, _ = sjson.Set(out, "error", msg)
	return out
}

func (e *Executor) writeFile(argsJSON string) string {
	path := gjson.Get(argsJSON, "path").String()
	content := gjson.Get(argsJSON, "content").String()
	if path == "" {
		return errResult("", "path is required")
	}
	if err := e.store.Write(path, []byte(content)); err != nil {
		return errResult(path, err.Error())
	}
	out, _ := sjson.Set(`{}`, "success", true)
	out, _ = sjson.Set(out, "path", path)
	return out
}

func (e *Executor) readFile(argsJSON string) string {
	path := gjson.Get(argsJSON, "path").String()
	if path == "" {
		return errResult("", "path is required")
	}
	data, err := e.store.Read(path)
	if err != nil {
		return errResult(path, err.Error())
	}
	out, _ := sjson.Set(`{}`, "success", true)
	out, _ = sjson.Set(out, "path", path)
	out, _ = sjson.Set(out, "content", string(data))
	return out
}

func (e *Executor) listFiles(argsJSON string) string {
	path := gjson.Get(argsJSON, "path").String()
	entries, err := e.store.List(path)
	if err != nil {
		return errResult(path, err.Error())
	}
	out, _ := sjson.Set(`{}`, "success", true)
	out, _ = sjson.Set(out, "files", []interface{}{})
	for i, entry := range entries {
		prefix := "files." + strconv.Itoa(i) + "."
		out, _ = sjson.Set(out, prefix+"name", entry.Path)
		out, _ = sjson.Set(out, prefix+"isDirectory", entry.IsDir)
	}
	return out
}

func (e *Executor) deleteFile(argsJSON string) string {
	path := gjson.Get(argsJSON, "path").String()
	if path == "" {
		return errResult("", "path is required")
	}
	if err := e.store.Delete(path); err != nil {
		return errResult(path, err.Error())
	}
	out, _ := sjson.Set(`{}`, "success", true)
	out, _ = sjson.Set(out, "path", path)
	return out
}
