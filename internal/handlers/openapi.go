package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/benvon/pet-shop/internal/apperror"
	"github.com/benvon/pet-shop/internal/response"
)

var errDocumentNotFound = apperror.NotFound("OpenAPI specification not found")

// OpenAPIHandler serves the API description document
type OpenAPIHandler struct {
	path    string
	baseDir string
	logger  *zap.Logger
}

// NewOpenAPIHandler creates a handler for the YAML document at path
func NewOpenAPIHandler(path string, logger *zap.Logger) *OpenAPIHandler {
	absPath, _ := filepath.Abs(path)
	return &OpenAPIHandler{
		path:    absPath,
		baseDir: filepath.Dir(absPath),
		logger:  logger,
	}
}

// RegisterRoutes registers the document routes under /api.
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/openapi.yaml", h.ServeYAML).Methods(http.MethodGet)
	r.HandleFunc("/openapi.json", h.ServeJSON).Methods(http.MethodGet)
}

// read loads the document after checking it resolves inside its own directory.
func (h *OpenAPIHandler) read() ([]byte, error) {
	resolved, err := filepath.EvalSymlinks(h.path)
	if err != nil {
		return nil, err
	}
	base, err := filepath.EvalSymlinks(h.baseDir)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(base, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, os.ErrPermission
	}
	return os.ReadFile(resolved)
}

// ServeYAML serves the document as stored
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	data, err := h.read()
	if err != nil {
		response.FromError(w, r, h.logger, errDocumentNotFound.Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(data)
}

// ServeJSON converts the document to JSON
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	data, err := h.read()
	if err != nil {
		response.FromError(w, r, h.logger, errDocumentNotFound.Wrap(err))
		return
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}
