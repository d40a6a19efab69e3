package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bull/groundchat/internal/assistant"
	"github.com/bull/groundchat/internal/indexer"
	"github.com/bull/groundchat/internal/markdown"
)

// maxUploadBytes bounds multipart uploads.
const maxUploadBytes = 32 << 20

type handlers struct {
	m      *assistant.Manager
	stats  StatsSource
	logger *slog.Logger
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
	HTML      string `json:"html,omitempty"`
	Grounded  bool   `json:"grounded"`
	Mode      string `json:"mode"`
	Error     string `json:"error,omitempty"`
}

type turnResponse struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type indexResponse struct {
	SourceID string   `json:"source_id"`
	Chunks   int      `json:"chunks"`
	Outline  []string `json:"outline,omitempty"`
}

type sessionResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ask runs one question. A failed turn still answers 200 with the error
// message, because it was recorded in the session like any other turn.
func (h *handlers) ask(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	reply, err := h.m.Session(id).Ask(r.Context(), req.Question)
	if err != nil {
		h.logger.Error("ask failed", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := askResponse{
		SessionID: id,
		Answer:    reply.Text,
		Grounded:  reply.Grounded,
		Mode:      string(reply.Mode),
	}
	if reply.Err != nil {
		resp.Error = reply.Text
	}
	if r.URL.Query().Get("format") == "html" {
		html, err := markdown.RenderHTML(reply.Text)
		if err != nil {
			h.logger.Warn("render answer failed", "session", id, "error", err)
		} else {
			resp.HTML = html
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	s := h.m.Session(id)

	turns, err := s.History(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	label, err := s.Label(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnResponse{Role: string(t.Role), Text: t.Text, At: t.At})
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "label": label, "turns": out})
}

func (h *handlers) clearHistory(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.m.Session(id).Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := h.m.Sessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]sessionResponse, 0, len(ids))
	for _, id := range ids {
		label, err := h.m.Session(id).Label(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, sessionResponse{ID: id, Label: label})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out, "count": len(out)})
}

// uploadFile indexes a multipart "file" field, replacing any earlier upload
// of the same name. The "name" form value overrides the file name.
func (h *handlers) uploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	res, err := h.m.Replace(r.Context(), name, string(data))
	if err != nil {
		writeError(w, indexStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toIndexResponse(res))
}

func (h *handlers) pasteSnippet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Snippet string `json:"snippet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.m.Paste(r.Context(), req.Snippet)
	if err != nil {
		writeError(w, indexStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toIndexResponse(res))
}

func (h *handlers) deleteFile(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "*")
	if name == "" {
		writeError(w, http.StatusBadRequest, "file name is required")
		return
	}
	if err := h.m.Delete(r.Context(), name); err != nil {
		writeError(w, indexStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// pathParam returns the decoded URL parameter. chi matches against the raw
// path, so names like owner%2Frepo%2FREADME.md arrive still escaped.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (h *handlers) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.m.Files(r.Context())
	if err != nil {
		writeError(w, indexStatus(err), err.Error())
		return
	}
	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files, "count": len(files)})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	st, err := h.stats.Stats(r.Context())
	if err != nil {
		writeError(w, indexStatus(err), err.Error())
		return
	}
	files := st.Sources
	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": st.Collection,
		"chunks":     st.Points,
		"files":      files,
	})
}

// indexStatus maps indexing errors to HTTP status codes.
func indexStatus(err error) int {
	switch {
	case errors.Is(err, indexer.ErrEmptyArtifact):
		return http.StatusBadRequest
	case errors.Is(err, indexer.ErrStoreUnavailable), errors.Is(err, indexer.ErrEmbeddingFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func toIndexResponse(res *indexer.Result) indexResponse {
	out := indexResponse{SourceID: res.SourceID, Chunks: res.Chunks}
	for _, hd := range res.Outline {
		out.Outline = append(out.Outline, hd.Path)
	}
	return out
}
