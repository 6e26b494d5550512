package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

type stubProcessor struct {
	doc      string
	warnings []string
	errs     []string
}

func (s *stubProcessor) Process(ctx context.Context, image []byte, filename string) (string, []string, []string) {
	return s.doc, s.warnings, s.errs
}

func testConfig() Config {
	return Config{
		Addr:           ":8000",
		MaxUploadBytes: 1 << 20,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
}

func multipartUpload(t *testing.T, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="page.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(payload)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func postProcess(t *testing.T, srv *Server, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, ProcessResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/process", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	var resp ProcessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	srv := New(testConfig(), &stubProcessor{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body %q", rec.Body.String())
	}
}

func TestProcessSuccess(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?><score-partwise><sound tempo="96"/></score-partwise>`
	srv := New(testConfig(), &stubProcessor{doc: doc, warnings: []string{"faint staff lines"}}, nil)
	body, ct := multipartUpload(t, "image/png", []byte("fake"))
	rec, resp := postProcess(t, srv, body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !resp.Success {
		t.Fatalf("success=false: %+v", resp)
	}
	if resp.MusicXML != doc {
		t.Fatalf("musicxml not echoed")
	}
	if resp.Tempo != 96 {
		t.Fatalf("tempo %d, want 96", resp.Tempo)
	}
	if len(resp.Warnings) != 1 || len(resp.Errors) != 0 {
		t.Fatalf("diagnostics %+v", resp)
	}
}

func TestProcessWarningsDoNotFlipSuccess(t *testing.T) {
	srv := New(testConfig(), &stubProcessor{doc: "<score-partwise/>", warnings: []string{"w"}}, nil)
	body, ct := multipartUpload(t, "image/jpeg", []byte("fake"))
	_, resp := postProcess(t, srv, body, ct)
	if !resp.Success {
		t.Fatal("warnings alone must not fail the request")
	}
}

func TestProcessEngineErrors(t *testing.T) {
	srv := New(testConfig(), &stubProcessor{errs: []string{"recognition failed: boom"}}, nil)
	body, ct := multipartUpload(t, "image/png", []byte("fake"))
	rec, resp := postProcess(t, srv, body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("pipeline failures still answer 200, got %d", rec.Code)
	}
	if resp.Success || len(resp.Errors) != 1 {
		t.Fatalf("response %+v", resp)
	}
}

func TestProcessRejectsContentType(t *testing.T) {
	srv := New(testConfig(), &stubProcessor{doc: "<score-partwise/>"}, nil)
	body, ct := multipartUpload(t, "application/pdf", []byte("%PDF"))
	rec, resp := postProcess(t, srv, body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0], "PNG or JPEG") {
		t.Fatalf("errors %v", resp.Errors)
	}
}

func TestProcessRejectsOversizedUpload(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 512
	srv := New(cfg, &stubProcessor{doc: "<score-partwise/>"}, nil)
	body, ct := multipartUpload(t, "image/png", bytes.Repeat([]byte("x"), 4096))
	rec, _ := postProcess(t, srv, body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestProcessMissingFileField(t *testing.T) {
	srv := New(testConfig(), &stubProcessor{}, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("notes", "no file here")
	mw.Close()
	rec, resp := postProcess(t, srv, &buf, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0], "file") {
		t.Fatalf("errors %v", resp.Errors)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := New(testConfig(), &stubProcessor{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/process", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow-origin %q", got)
	}
}
