package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/appleton-labs/automaton/internal/orchestrator"
	"github.com/appleton-labs/automaton/internal/upload"
	"github.com/appleton-labs/automaton/internal/workflow"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("content-type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		body := readBody(r)
		if len(body) == 0 {
			http.Error(w, "definition required", http.StatusBadRequest)
			return
		}
		def, err := workflow.ParseDefinition(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		def, err = s.wf.CreateDefinition(def)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, def)
	case http.MethodGet:
		items, err := s.wf.ListDefinitions()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleWorkflowByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/workflows/")
	if path == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(path, "/")
	id := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case r.Method == http.MethodGet && action == "":
		def, err := s.wf.GetDefinition(id)
		if err != nil {
			notFoundOr500(w, err)
			return
		}
		writeJSON(w, def)
	case r.Method == http.MethodGet && action == "executions":
		items, err := s.wf.ListExecutions(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"items": items})
	case r.Method == http.MethodPost && action == "runs":
		exec, err := s.orc.ExecuteWorkflowID(r.Context(), id)
		if err != nil && exec == nil {
			notFoundOr500(w, err)
			return
		}
		// Step failures are reported in the execution record, not as an
		// HTTP error.
		writeJSON(w, exec)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) handleExecutionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/executions/")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	exec, err := s.wf.GetExecution(id)
	if err != nil {
		notFoundOr500(w, err)
		return
	}
	writeJSON(w, exec)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"items": s.orc.Tasks()})
}

func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/tasks/")
	parts := strings.Split(path, "/")
	id := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case r.Method == http.MethodGet && action == "":
		task, err := s.orc.Task(id)
		if err != nil {
			notFoundOr500(w, err)
			return
		}
		writeJSON(w, task)
	case r.Method == http.MethodPost && action == "cancel":
		if err := s.orc.CancelTask(id); err != nil {
			if errors.Is(err, orchestrator.ErrTaskNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(body.Path) == "" {
			http.Error(w, "path required", http.StatusBadRequest)
			return
		}
		info, err := s.orc.ProcessUpload(r.Context(), body.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, info)
	case http.MethodGet:
		items, err := s.up.List()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUploadByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/uploads/")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		info, err := s.up.Get(id)
		if err != nil {
			notFoundOr500(w, err)
			return
		}
		writeJSON(w, info)
	case http.MethodDelete:
		if err := s.up.Delete(id); err != nil {
			notFoundOr500(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"items": workflow.BuiltinTemplates})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("content-type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func notFoundOr500(w http.ResponseWriter, err error) {
	if errors.Is(err, workflow.ErrNotFound) || errors.Is(err, upload.ErrNotFound) || errors.Is(err, orchestrator.ErrTaskNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func readBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	b, _ := io.ReadAll(r.Body)
	return b
}
