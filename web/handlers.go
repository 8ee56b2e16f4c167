package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/YoungY620/codeflow/analyzer"
	"github.com/YoungY620/codeflow/internal"
	"github.com/YoungY620/codeflow/report"
	"github.com/YoungY620/codeflow/source"
)

// UploadField is the multipart field carrying the files to analyze.
const UploadField = "files"

// previewLimit bounds raw_preview, in characters.
const previewLimit = 5000

const truncatedSuffix = "\n... [truncated]"

// maxMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const maxMemory = 8 << 20

// AnalysisResponse is the reply of both analyze endpoints.
type AnalysisResponse struct {
	report.Document
	Raw        string `json:"raw"`
	RawPreview string `json:"raw_preview"`
}

// RepoRequest is the body of POST /api/analyze/repo.
type RepoRequest struct {
	URL string `json:"url"`
}

// Language is one entry of GET /api/languages.
type Language struct {
	Extension string `json:"extension"`
	Name      string `json:"name"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "upload_too_large",
				fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid_upload", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var uploads []source.Upload
	for _, fh := range r.MultipartForm.File[UploadField] {
		uploads = append(uploads, source.Upload{
			Name: uploadName(fh),
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	ws, err := source.Stage(uploads)
	if err != nil {
		if errors.Is(err, source.ErrNoFiles) || errors.Is(err, source.ErrUnsafePath) {
			writeError(w, r, http.StatusBadRequest, "invalid_upload", err)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", err)
		return
	}
	defer ws.Close()

	internal.LogInfo("Analyzing %d uploaded files [%s]", len(uploads), RequestID(r.Context()))
	s.analyze(w, r, ws.Dir, fmt.Sprintf("upload (%d files)", len(uploads)), report.SourceUpload)
}

// uploadName returns the client-side file name including any relative
// directory, which multipart.FileHeader.Filename strips.
func uploadName(fh *multipart.FileHeader) string {
	if _, params, err := mime.ParseMediaType(fh.Header.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	return fh.Filename
}

func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	var req RepoRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid JSON body: %w", err))
		return
	}

	url, err := source.ValidateRepoURL(req.URL)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_url", err)
		return
	}

	if err := s.acquire(r.Context()); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "cancelled", err)
		return
	}
	ws, err := source.Clone(r.Context(), url, source.CloneOptions{GitBinary: s.opts.GitBinary, Depth: s.opts.CloneDepth})
	s.release()
	if err != nil {
		if errors.Is(err, source.ErrCloneFailed) {
			writeError(w, r, http.StatusBadGateway, "clone_failed", err)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", err)
		return
	}
	defer ws.Close()

	s.analyze(w, r, ws.Dir, url, report.SourceRepo)
}

// analyze runs the folder analysis of dir and writes the response. root
// is what the report shows instead of the temporary directory.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request, dir, root, kind string) {
	ctx := r.Context()
	if err := s.acquire(ctx); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "cancelled", err)
		return
	}
	defer s.release()

	start := time.Now()
	combined, err := s.analyzer.AnalyzeFolder(ctx, dir)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, r, status, "analysis_failed", err)
		return
	}

	doc := report.NewDocument(root, kind, combined, time.Since(start))
	doc.RunID = RequestID(ctx)
	if doc.Sections == nil {
		doc.Sections = []report.Section{}
	}
	writeJSON(w, http.StatusOK, AnalysisResponse{
		Document:   doc,
		Raw:        combined,
		RawPreview: preview(combined),
	})
}

// preview cuts s to previewLimit characters, marking the cut.
func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLimit {
		return s
	}
	return string(runes[:previewLimit]) + truncatedSuffix
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	exts := analyzer.SupportedExtensions()
	langs := make([]Language, 0, len(exts))
	for _, ext := range exts {
		name, _ := analyzer.LanguageFor(ext)
		langs = append(langs, Language{Extension: ext, Name: name})
	}
	writeJSON(w, http.StatusOK, langs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
