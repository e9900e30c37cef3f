package handlers

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/nginxgod/nginxgod/internal/analytics"
	"github.com/nginxgod/nginxgod/internal/httpmsg"
	"github.com/nginxgod/nginxgod/internal/nginxconf"
)

var postJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// postBody is the JSON shape the dynamic POST handler expects.
type postBody struct {
	Input       string `json:"input"`
	InputAsFile bool   `json:"input_as_file"`
	Source      string `json:"source"`
}

// Invoker runs the simulation executable named by a request and returns
// its captured stdout/stderr. The concrete mechanism (os/exec here) is
// swappable without touching PostHandler.
type Invoker interface {
	Invoke(executable string, args ...string) (stdout, stderr string, err error)
}

// ExecInvoker runs executables via os/exec.
type ExecInvoker struct{}

func (ExecInvoker) Invoke(executable string, args ...string) (string, string, error) {
	cmd := exec.Command(executable, args...)
	var out, errOut strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err := cmd.Run()
	return out.String(), errOut.String(), err
}

// PostHandler runs the executable named by the request body's source field,
// looked up under the server root's simulations/ directory, against a
// JSON-described input and reports its stdout/stderr as JSON.
type PostHandler struct {
	Invoker  Invoker
	Counters *analytics.Counters
}

// NewPostHandler builds a handlerregistry.Factory for PostHandler.
func NewPostHandler(invoker Invoker, counters *analytics.Counters) func() interface{} {
	return func() interface{} { return &PostHandler{Invoker: invoker, Counters: counters} }
}

func (h *PostHandler) Handle(req *httpmsg.Request, cfg *nginxconf.ServerConfig) *httpmsg.Response {
	h.Counters.Posts.Inc()

	resp := httpmsg.NewResponse(200)
	setConnectionHeader(resp, req)
	resp.Header.Set("Cache-Control", "no-store")
	resp.Header.Set("Content-Type", "application/json")

	body, err := readRequestBody(req)
	if err != nil {
		resp.Status = 400
		return resp
	}

	var parsed postBody
	if err := postJSON.Unmarshal(body, &parsed); err != nil || parsed.Source == "" {
		resp.Status = 400
		return resp
	}

	if strings.Contains(parsed.Source, "../") {
		h.Counters.Malicious.Inc()
		resp.Status = 403
		return resp
	}

	executable := filepath.Join(cfg.Root, "simulations", parsed.Source)
	if _, err := os.Stat(executable); err != nil {
		h.Counters.Malicious.Inc()
		resp.Status = 404
		return resp
	}

	var stdout, stderr string
	if parsed.InputAsFile {
		tempPath := filepath.Join(cfg.Root, "simulations", "temp_input.txt")
		if err := os.WriteFile(tempPath, []byte(parsed.Input), 0o644); err != nil {
			resp.Status = 500
			return resp
		}
		stdout, stderr, err = h.Invoker.Invoke(executable, tempPath)
		_ = os.WriteFile(tempPath, []byte{}, 0o644)
	} else {
		stdout, stderr, err = h.Invoker.Invoke(executable, parsed.Input)
	}
	if err != nil {
		h.Counters.Malicious.Inc()
		resp.Status = 404
		return resp
	}

	out, _ := postJSON.Marshal(map[string]string{
		"cout": escapeOutput(stdout),
		"cerr": escapeOutput(stderr),
	})
	resp.Body = out
	return resp
}

func escapeOutput(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

func readRequestBody(req *httpmsg.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	defer req.Body.Close()
	return io.ReadAll(req.Body)
}
