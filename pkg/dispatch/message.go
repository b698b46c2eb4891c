package dispatch

import (
	"encoding/json"
	"strings"

	"github.com/matzehuels/canvasport/pkg/deserialize"
	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/serialize"
)

// Message types.
const (
	TypeExport = "export"
	TypeImport = "import"
)

// Export targets.
const (
	TargetSelected = "selected"
	TargetPage     = "page"
	TargetFile     = "file"
)

// Targets lists the valid export targets.
var Targets = []string{TargetSelected, TargetPage, TargetFile}

// Request is a message from the UI layer.
type Request struct {
	Type   string           `json:"type"`
	Target string           `json:"target,omitempty"`
	Bundle *portable.Bundle `json:"bundle,omitempty"`
}

// Response answers a Request. Type is "<op>-success" or "<op>-error".
type Response struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Code    errors.Code `json:"code,omitempty"`
	Node    string      `json:"node,omitempty"`
	Data    any         `json:"data,omitempty"`
}

// OK reports whether r is a success response.
func (r Response) OK() bool { return strings.HasSuffix(r.Type, "-success") }

// ExportResult is the data of an export-success response.
type ExportResult struct {
	Bundle *portable.Bundle `json:"bundle"`
	Stats  serialize.Stats  `json:"stats"`
}

// ImportResult is the data of an import-success response.
type ImportResult struct {
	Nodes []string          `json:"nodes"`
	Stats deserialize.Stats `json:"stats"`
}

// DecodeRequest parses a JSON request. Malformed payloads are INVALID_MESSAGE
// errors.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, errors.Wrap(errors.ErrCodeInvalidMessage, err, "decode request")
	}
	return req, nil
}

func success(op string, data any) Response {
	return Response{Type: op + "-success", Data: data}
}

func failure(op string, err error) Response {
	if op == "" {
		op = "message"
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return Response{Type: op + "-error", Message: errors.UserMessage(err), Code: code, Node: errors.NodeOf(err)}
}
