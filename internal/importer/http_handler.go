package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rpattn/planledger/internal/domain"
)

// Handler exposes the two importers over multipart upload endpoints.
type Handler struct {
	expenses          *ExpenseService
	actuals           *ActualsService
	templateStorePath string
}

// NewHTTPHandler wires the import endpoints onto a mux.
func NewHTTPHandler(expenses *ExpenseService, actuals *ActualsService, templateStorePath string) http.Handler {
	h := &Handler{
		expenses:          expenses,
		actuals:           actuals,
		templateStorePath: templateStorePath,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /import/expenses/preview", h.expensePreview)
	mux.HandleFunc("POST /import/expenses/commit", h.expenseCommit)
	mux.HandleFunc("POST /import/actuals/preview", h.actualsPreview)
	mux.HandleFunc("POST /import/actuals/commit", h.actualsCommit)
	mux.HandleFunc("GET /import/templates", h.listTemplates)
	return mux
}

func (h *Handler) expensePreview(w http.ResponseWriter, r *http.Request) {
	opts, cleanup, err := h.expenseOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cleanup()

	result, err := h.expenses.Preview(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) expenseCommit(w http.ResponseWriter, r *http.Request) {
	opts, cleanup, err := h.expenseOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cleanup()

	result, err := h.expenses.Commit(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) actualsPreview(w http.ResponseWriter, r *http.Request) {
	opts, cleanup, err := actualsOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cleanup()

	result, err := h.actuals.Preview(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) actualsCommit(w http.ResponseWriter, r *http.Request) {
	opts, cleanup, err := actualsOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cleanup()

	result, err := h.actuals.Commit(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := NewTemplateStore(h.templateStorePath).List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if templates == nil {
		templates = []domain.MappingTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *Handler) expenseOptions(r *http.Request) (ExpenseOptions, func(), error) {
	opts := ExpenseOptions{TemplateStorePath: h.templateStorePath}

	path, cleanup, err := saveUpload(r)
	if err != nil {
		return opts, func() {}, err
	}
	opts.FilePath = path

	mapping, err := parseMapping(r.FormValue("mapping"))
	if err != nil {
		cleanup()
		return opts, func() {}, err
	}
	opts.Mapping = mapping
	opts.TemplateName = strings.TrimSpace(r.FormValue("templateName"))
	opts.SaveTemplate = r.FormValue("saveTemplate") == "true"
	if raw := r.FormValue("useSavedTemplate"); raw != "" {
		use, err := strconv.ParseBool(raw)
		if err != nil {
			cleanup()
			return opts, func() {}, fmt.Errorf("invalid useSavedTemplate: %q", raw)
		}
		opts.UseSavedTemplate = &use
	}

	return opts, cleanup, nil
}

func actualsOptions(r *http.Request) (ActualsOptions, func(), error) {
	opts := ActualsOptions{}

	path, cleanup, err := saveUpload(r)
	if err != nil {
		return opts, func() {}, err
	}
	opts.FilePath = path

	mapping, err := parseMapping(r.FormValue("mapping"))
	if err != nil {
		cleanup()
		return opts, func() {}, err
	}
	opts.Mapping = mapping

	return opts, cleanup, nil
}

// saveUpload spools the multipart upload to a temp file keeping the
// original extension, since the file reader dispatches on it.
func saveUpload(r *http.Request) (string, func(), error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", nil, fmt.Errorf("invalid form data: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("file required: %w", err)
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", nil, fmt.Errorf("failed to spool upload: %w", err)
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to spool upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to spool upload: %w", err)
	}

	path := tmp.Name()
	return path, func() { _ = os.Remove(path) }, nil
}

func parseMapping(raw string) (domain.ColumnMapping, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var mapping domain.ColumnMapping
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		return nil, fmt.Errorf("invalid mapping: %w", err)
	}
	return mapping, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
