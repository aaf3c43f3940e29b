package api

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/samcharles93/ratufa/internal/task"
)

var validate = validator.New()

// SpawnRequest is the body of POST /v1/tasks.
type SpawnRequest struct {
	ROMs             []string          `json:"roms" validate:"required,min=1,dive,required"`
	MainClass        string            `json:"main_class" validate:"required"`
	MainArgs         []string          `json:"main_args,omitempty"`
	SystemProperties map[string]string `json:"system_properties,omitempty"`
	Scaffold         string            `json:"scaffold,omitempty"`
	Stdout           string            `json:"stdout,omitempty" validate:"omitempty,oneof=discard buffer"`
	Stderr           string            `json:"stderr,omitempty" validate:"omitempty,oneof=discard buffer"`
	// Stdin seeds the task's input buffer before its main thread starts.
	Stdin string `json:"stdin,omitempty"`
}

func (r SpawnRequest) redirects() (task.RedirectMode, task.RedirectMode, error) {
	out, err := redirect(r.Stdout)
	if err != nil {
		return 0, 0, err
	}
	errMode, err := redirect(r.Stderr)
	if err != nil {
		return 0, 0, err
	}
	return out, errMode, nil
}

func redirect(s string) (task.RedirectMode, error) {
	if s == "" {
		return task.RedirectBuffer, nil
	}
	return task.ParseRedirectMode(s)
}

type ListResponse[T any] struct {
	Object string `json:"object"`
	Data   []T    `json:"data"`
}

func newList[T any](data []T) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Object: "list", Data: data}
}

type ScaffoldInfo struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

type ROMInfo struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	Driver        string `json:"driver"`
	Version       int16  `json:"version"`
	NumProperties int32  `json:"num_properties"`
	NumLibraries  *int32 `json:"num_libraries,omitempty"`
	Mapped        bool   `json:"mapped"`
}

type OutputResponse struct {
	ID     string `json:"id"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// validationMessage flattens validator errors into one line naming each
// failing field by its JSON name.
func validationMessage(err error) (string, string) {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error(), ""
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", jsonName(fe.Field()), fe.Tag()))
	}
	return strings.Join(msgs, "; "), jsonName(verrs[0].Field())
}

func jsonName(field string) string {
	switch {
	case strings.HasPrefix(field, "ROMs"):
		return "roms"
	case field == "MainClass":
		return "main_class"
	default:
		return strings.ToLower(field)
	}
}
