// Package server exposes the recognition pipeline over HTTP: a multipart
// upload endpoint returning MusicXML plus diagnostics, and a health probe.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"scorelib/meta"
	"scorelib/observability"
)

// SheetProcessor turns one page image into MusicXML text plus warning and
// error lists.
type SheetProcessor interface {
	Process(ctx context.Context, image []byte, filename string) (doc string, warnings []string, errors []string)
}

var allowedContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// ProcessResponse is the JSON body of POST /process.
type ProcessResponse struct {
	Success        bool     `json:"success"`
	MusicXML       string   `json:"musicxml,omitempty"`
	Tempo          int      `json:"tempo,omitempty"`
	Warnings       []string `json:"warnings"`
	Errors         []string `json:"errors"`
	ProcessingTime float64  `json:"processing_time"`
}

// Server routes HTTP requests to a SheetProcessor.
type Server struct {
	processor SheetProcessor
	logger    observability.Logger
	maxUpload int64
	handler   http.Handler
}

// New builds a Server. A nil logger disables logging.
func New(cfg Config, processor SheetProcessor, logger observability.Logger) *Server {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	s := &Server{
		processor: processor,
		logger:    logger,
		maxUpload: cfg.MaxUploadBytes,
	}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/process", s.handleProcess).Methods("POST")
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.handler = cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(router)

	return s
}

// Handler returns the routing tree with CORS applied.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.badRequest(w, started, "File too large or malformed multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, started, "Missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedContentTypes[contentType] {
		s.badRequest(w, started, "Unsupported file type. Please upload a PNG or JPEG image")
		return
	}

	image, err := io.ReadAll(file)
	if err != nil {
		s.badRequest(w, started, "Failed to read uploaded file")
		return
	}

	doc, warnings, errs := s.processor.Process(r.Context(), image, header.Filename)

	resp := ProcessResponse{
		Success:        doc != "" && len(errs) == 0,
		MusicXML:       doc,
		Warnings:       emptyIfNil(warnings),
		Errors:         emptyIfNil(errs),
		ProcessingTime: time.Since(started).Seconds(),
	}
	if doc != "" {
		resp.Tempo = meta.ExtractTempo(doc)
	}

	s.logger.Info("processed upload",
		observability.String("filename", header.Filename),
		observability.Int("warnings", len(warnings)),
		observability.Int("errors", len(errs)),
		observability.Float64("elapsed_s", resp.ProcessingTime))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) badRequest(w http.ResponseWriter, started time.Time, msg string) {
	writeJSON(w, http.StatusBadRequest, ProcessResponse{
		Warnings:       []string{},
		Errors:         []string{msg},
		ProcessingTime: time.Since(started).Seconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
