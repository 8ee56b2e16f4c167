package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/YoungY620/codeflow/analyzer"
	"github.com/YoungY620/codeflow/internal"
)

// JSON-RPC 2.0 structures
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MCP structures
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

type Capabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct{}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ToolCallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
	Warning string        `json:"warning,omitempty"`
}

type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Server is the MCP server
type Server struct {
	stateDir string
	version  string
	reader   *bufio.Reader
	writer   io.Writer
}

// NewServer creates an MCP server answering from the report saved in
// stateDir, reading requests from r and writing responses to w.
func NewServer(stateDir, version string, r io.Reader, w io.Writer) *Server {
	return &Server{
		stateDir: stateDir,
		version:  version,
		reader:   bufio.NewReader(r),
		writer:   w,
	}
}

const whenToUse = `**When to use this tool:**
Use codeflow tools when you need per-file control flow, security risks or
performance bottlenecks of this codebase. The analysis was produced ahead of
time by an external model, one section per source file, plus a project
summary. Reading it is much faster than tracing the files yourself.`

func (s *Server) tools() []Tool {
	return []Tool{
		{
			Name:        "codeflow_summary",
			Description: whenToUse + "\n\n**Function:** Project summary of the last saved analysis.\n\nReturns {run_id, root, generated_at, files, summary}",
			InputSchema: InputSchema{Type: "object", Properties: map[string]Property{}, Required: []string{}},
		},
		{
			Name:        "codeflow_list_files",
			Description: whenToUse + "\n\n**Function:** List the analyzed file names in report order.\n\nReturns {files: [...]}",
			InputSchema: InputSchema{Type: "object", Properties: map[string]Property{}, Required: []string{}},
		},
		{
			Name:        "codeflow_get_file",
			Description: whenToUse + "\n\n**Function:** Flow chart, security risks and performance bottlenecks of one file.\n\nReturns {file, analyses: [...]}",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"file": {Type: "string", Description: "File name as listed by codeflow_list_files, e.g. main.go"},
				},
				Required: []string{"file"},
			},
		},
	}
}

// Run serves requests until the reader is exhausted.
func (s *Server) Run() error {
	h := internal.History()
	h.LogInfo("MCP server started")
	defer h.LogInfo("MCP server stopped")

	for {
		line, err := s.reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			s.serveLine(h, line)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			h.LogError("read error", err)
			return err
		}
	}
}

func (s *Server) serveLine(h *internal.HistoryLogger, line []byte) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		h.LogError("parse error", err)
		s.sendError(nil, -32700, "Parse error")
		return
	}

	var params any
	if len(req.Params) > 0 {
		json.Unmarshal(req.Params, &params)
	}
	h.LogRequest(req.Method, req.ID, params)

	start := time.Now()
	resp := s.handleRequest(&req)
	if resp == nil {
		return
	}
	if resp.Error != nil {
		h.LogResponse(resp.ID, nil, resp.Error, time.Since(start))
	} else {
		h.LogResponse(resp.ID, resp.Result, nil, time.Since(start))
	}
	s.sendResponse(resp)
}

func (s *Server) handleRequest(req *Request) *Response {
	switch req.Method {
	case "initialize":
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: InitializeResult{
				ProtocolVersion: "2024-11-05",
				ServerInfo: ServerInfo{
					Name:    "codeflow",
					Version: s.version,
				},
				Capabilities: Capabilities{
					Tools: &ToolsCapability{},
				},
			},
		}

	case "notifications/initialized":
		// No response needed for notifications
		return nil

	case "tools/list":
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  ToolsListResult{Tools: s.tools()},
		}

	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return s.errorResponse(req.ID, -32602, "Invalid params")
		}
		return s.handleToolCall(req.ID, &params)

	default:
		return s.errorResponse(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (s *Server) handleToolCall(id any, params *ToolCallParams) *Response {
	var args struct {
		File string `json:"file"`
	}
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return s.errorResponse(id, -32602, "Invalid arguments")
		}
	}

	var result any
	var err error

	switch params.Name {
	case "codeflow_summary":
		result, err = Summary(s.stateDir)
	case "codeflow_list_files":
		result, err = ListFiles(s.stateDir)
	case "codeflow_get_file":
		result, err = GetFile(s.stateDir, args.File)
	default:
		return s.errorResponse(id, -32602, fmt.Sprintf("Unknown tool: %s", params.Name))
	}

	if err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      id,
			Result: ToolCallResult{
				Content: []ContentItem{{Type: "text", Text: err.Error()}},
				IsError: true,
			},
		}
	}

	resultJSON, _ := json.Marshal(result)
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Result: ToolCallResult{
			Content: []ContentItem{{Type: "text", Text: string(resultJSON)}},
			Warning: s.staleWarning(),
		},
	}
}

// staleWarning reports a running analysis that will replace the report.
func (s *Server) staleWarning() string {
	status := analyzer.GetStatus(s.stateDir)
	if status.Status != analyzer.StatusAnalyzing {
		return ""
	}
	warning := "Data may be stale: analysis in progress"
	if status.Since != nil {
		warning += fmt.Sprintf(" (started %s ago)", time.Since(*status.Since).Round(time.Second))
	}
	return warning
}

func (s *Server) errorResponse(id any, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
}

func (s *Server) sendError(id any, code int, message string) {
	s.sendResponse(s.errorResponse(id, code, message))
}

func (s *Server) sendResponse(resp *Response) {
	data, _ := json.Marshal(resp)
	fmt.Fprintln(s.writer, string(data))
}

// Serve runs an MCP server on stdio over the report saved in stateDir.
func Serve(stateDir, version string) error {
	internal.InitHistoryLogger(stateDir, "mcp")
	defer internal.CloseHistoryLogger()
	return NewServer(stateDir, version, os.Stdin, os.Stdout).Run()
}
