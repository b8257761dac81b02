package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/duckmesh/schemaprompt/internal/compiler"
	"github.com/duckmesh/schemaprompt/internal/schema"
)

const maxTranslateBodyBytes = 64 << 10

type translateRequest struct {
	Prompt string `json:"prompt"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Compiler == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema source is not configured", false, nil)
		return
	}
	snapshot, err := deps.Compiler.Snapshot(r.Context())
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	if snapshot.Tables == nil {
		snapshot.Tables = []schema.Table{}
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func handlePrompt(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Compiler == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema source is not configured", false, nil)
		return
	}
	compiled, err := deps.Compiler.Prompt(r.Context())
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(compiled.Prompt))
}

func handleTranslate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Compiler == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TRANSLATE_NOT_CONFIGURED", "query translation is not configured", false, nil)
		return
	}

	var req translateRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTranslateBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid translation request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "PROMPT_REQUIRED", "prompt is required", false, nil)
		return
	}

	translation, err := deps.Compiler.Translate(r.Context(), req.Prompt)
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sql":      translation.SQL,
		"raw":      translation.Raw,
		"model":    translation.Model,
		"provider": translation.Provider,
	})
}

func writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	details := map[string]any{"details": err.Error()}
	var ie *schema.IntrospectionError
	switch {
	case errors.Is(err, schema.ErrConnection):
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE", "schema source is unavailable", true, details)
	case errors.As(err, &ie):
		if ie.Table != "" {
			details["table"] = ie.Table
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "INTROSPECTION_FAILED", "failed to introspect schema", true, details)
	case errors.Is(err, compiler.ErrEmptyRequest):
		writeError(r.Context(), w, http.StatusBadRequest, "PROMPT_REQUIRED", "prompt is required", false, nil)
	case errors.Is(err, compiler.ErrTranslate):
		writeError(r.Context(), w, http.StatusBadGateway, "TRANSLATE_FAILED", "failed to translate query", true, details)
	default:
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", "request failed", false, details)
	}
}
