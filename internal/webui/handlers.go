package webui

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"studentetl/internal/app"
	"studentetl/internal/exporter"
	"studentetl/internal/parser"
	"studentetl/internal/pipeline"
	"studentetl/internal/schema"
	"studentetl/internal/summary"
	"studentetl/pkg/records"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// uploadResponse is the body of /api/upload.
type uploadResponse struct {
	RunID        string              `json:"run_id"`
	Source       string              `json:"source"`
	Kind         parser.Kind         `json:"kind"`
	Tag          schema.Tag          `json:"tag"`
	Label        string              `json:"label"`
	Records      []records.Record    `json:"records"`
	Summary      summary.Summary     `json:"summary"`
	Stats        pipeline.Stats      `json:"stats"`
	Warnings     []string            `json:"warnings,omitempty"`
	WarningCount int                 `json:"warning_count"`
	Diagnostic   string              `json:"diagnostic,omitempty"`
	Expected     map[string][]string `json:"expected,omitempty"`
	Found        []string            `json:"found,omitempty"`
}

func newUploadResponse(o app.Outcome) uploadResponse {
	res := uploadResponse{
		RunID:        o.Result.RunID,
		Source:       o.Source,
		Kind:         o.Kind,
		Tag:          o.Result.Tag,
		Label:        o.Result.Tag.Label(),
		Records:      o.Result.Records,
		Summary:      o.Summary,
		Stats:        o.Result.Stats,
		Warnings:     o.Warnings,
		WarningCount: o.WarningCount,
	}
	if err := o.Result.Diagnostic; err != nil {
		res.Diagnostic = err.Error()
		var mm *schema.MismatchError
		if errors.As(err, &mm) {
			res.Expected = make(map[string][]string, len(mm.Expected))
			for tag, keys := range mm.Expected {
				res.Expected[tag.String()] = keys
			}
			res.Found = mm.Found
		}
	}
	return res
}

// clean reads the "file" part and runs it. It writes the error response
// itself and returns ok=false on failure.
func (s *Server) clean(w http.ResponseWriter, r *http.Request) (app.Outcome, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.fail(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit))
			return app.Outcome{}, false
		}
		s.fail(w, r, http.StatusBadRequest, "expected a multipart/form-data upload: "+err.Error())
		return app.Outcome{}, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, `missing form file "file"`)
		return app.Outcome{}, false
	}
	defer f.Close()

	out, err := s.cleaner.Clean(r.Context(), hdr.Filename, f)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err.Error())
		return out, false
	}
	if !out.Recognized() && !app.IsMismatch(out.Result.Diagnostic) {
		// Canceled mid-run.
		s.fail(w, r, http.StatusServiceUnavailable, out.Result.Diagnostic.Error())
		return out, false
	}
	return out, true
}

// filterFrom reads the class, sex and dept query parameters.
func filterFrom(r *http.Request) summary.Filter {
	q := r.URL.Query()
	return summary.Filter{Class: q.Get("class"), Sex: q.Get("sex"), Dept: q.Get("dept")}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	out, ok := s.clean(w, r)
	if !ok {
		return
	}
	if !out.Recognized() {
		render.Status(r, http.StatusUnprocessableEntity)
	}
	render.JSON(w, r, newUploadResponse(out.Filtered(filterFrom(r))))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = s.cfg.ExportFormat
	}
	format, err := exporter.ParseFormat(name)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err.Error())
		return
	}
	out, ok := s.clean(w, r)
	if !ok {
		return
	}
	if !out.Recognized() {
		s.fail(w, r, http.StatusUnprocessableEntity, out.Result.Diagnostic.Error())
		return
	}

	filter := filterFrom(r)
	out = out.Filtered(filter)
	tag := out.Result.Tag
	w.Header().Set("Content-Type", exporter.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.FileName(tag, format, filter.Suffix())))
	w.Header().Set("X-Run-Id", out.Result.RunID)
	if err := exporter.Write(w, format, tag, out.Result.Records, exporter.Options{BOM: s.cfg.ExportBOM}); err != nil {
		s.log.ErrorContext(r.Context(), "export failed", "error", err)
	}
}

type schemaInfo struct {
	Tag      schema.Tag `json:"tag"`
	Label    string     `json:"label"`
	Required []string   `json:"required"`
}

func schemaList() []schemaInfo {
	tags := []schema.Tag{schema.SecondaryEducation, schema.TertiaryEducation}
	out := make([]schemaInfo, len(tags))
	for i, t := range tags {
		out[i] = schemaInfo{Tag: t, Label: t.Label(), Required: schema.RequiredKeys(t)}
	}
	return out
}

func (s *Server) handleSchemas(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, schemaList())
}

// routeList is served at / so a client can discover the API.
var routeList = []string{
	"POST /api/upload",
	"POST /api/export",
	"GET /api/schemas",
	"GET /healthz",
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	routes := routeList
	if s.cfg.Metrics != nil {
		routes = append(routes[:len(routes):len(routes)], "GET /metrics")
	}
	render.JSON(w, r, map[string]any{
		"service": "studentetl",
		"routes":  routes,
		"schemas": schemaList(),
	})
}
