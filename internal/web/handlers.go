package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/csvdml/internal/core"
	"github.com/JonMunkholm/csvdml/internal/history"
	"github.com/JonMunkholm/csvdml/internal/logging"
	"github.com/JonMunkholm/csvdml/internal/web/templates"
)

// Response headers describing a conversion.
const (
	headerConversionID   = "X-Conversion-ID"
	headerStatementCount = "X-Statement-Count"
	headerVerifiedRows   = "X-Verified-Rows"
)

// multipartMemory is how much of a multipart body is held in memory; the
// rest spills to temporary files.
const multipartMemory = 32 << 20

const welcomeMessage = "Welcome to the CSV to DML converter."

// handleRoot returns the static welcome payload.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"message": welcomeMessage})
}

// handleUploadPage renders the HTML form.
func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.UploadPage(templates.UploadForm{
		TableName:     s.cfg.Convert.DefaultTable,
		Dialect:       s.cfg.Convert.DefaultDialect,
		CaseTransform: s.cfg.Convert.DefaultCase,
	})
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render upload page", "error", err)
	}
}

// handleUpload converts a multipart CSV upload and returns the statements as
// plain text. Options come from the query string or form fields.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, maxErr)
			return
		}
		writeDetail(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	req := core.Request{
		FileName: header.Filename,
		Size:     header.Size,
		Options:  requestOptions(r),
		Verify:   formBool(r, "verify"),
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Convert(ctx, req, file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(headerConversionID, res.ID)
	w.Header().Set(headerStatementCount, strconv.Itoa(res.Statements))
	if res.Verified {
		w.Header().Set(headerVerifiedRows, strconv.Itoa(res.VerifiedRows))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(res.SQL)); err != nil {
		logging.FromContext(r.Context()).Warn("write response", "conversion_id", res.ID, "error", err)
	}
}

// requestOptions reads the conversion options. Empty values are left empty
// so the service applies its configured defaults.
func requestOptions(r *http.Request) core.Options {
	var opts core.Options
	opts.TableName = r.FormValue("table_name")
	if v := r.FormValue("case_transform"); v != "" {
		opts.CaseTransform = core.ParseCaseTransform(v)
	}
	if v := r.FormValue("sql_dialect"); v != "" {
		opts.Dialect = core.ParseDialect(v)
	}
	return opts
}

// formBool parses a boolean parameter; anything unparseable is false.
func formBool(r *http.Request, key string) bool {
	b, err := strconv.ParseBool(r.FormValue(key))
	return err == nil && b
}

// historyResponse is the body of GET /history.
type historyResponse struct {
	Conversions []history.Entry    `json:"conversions"`
	Count       int                `json:"count"`
	Limiter     core.LimiterStatus `json:"limiter"`
}

// handleHistory lists recent conversions, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeDetail(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.service.Recent(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("list history", "error", err)
		writeDetail(w, r, http.StatusInternalServerError, "could not load history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	writeJSON(w, r, historyResponse{
		Conversions: entries,
		Count:       len(entries),
		Limiter:     s.service.LimiterStatus(),
	})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}
