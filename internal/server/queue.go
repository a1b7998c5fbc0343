package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytsubs/internal/channelurl"
	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/tasks"
)

const maxBodyBytes = 1 << 20

// QueueHandler exposes one mutation queue and its list view as JSON.
//
//	GET  /queue         snapshot
//	POST /queue/add     {"input": "..."}
//	POST /queue/remove  {"url": "..."}
//	POST /queue/undo
//	POST /queue/save
//	GET  /channels      ?page&pageSize&search&sort&subFolder&append
//
// Queue outcomes are answered with 200 and an OperationResult body; only malformed requests get 4xx.
type QueueHandler struct {
	queue  *tasks.MutationQueue
	list   *tasks.ChannelList
	logger *log.Logger
}

// NewQueueHandler creates a handler over queue and list.
func NewQueueHandler(queue *tasks.MutationQueue, list *tasks.ChannelList, logger *log.Logger) *QueueHandler {
	return &QueueHandler{queue: queue, list: list, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *QueueHandler) Routes() []string {
	return []string{"/queue", "/queue/", "/channels"}
}

func (h *QueueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type route struct{ method, path string }

	switch (route{r.Method, strings.TrimSuffix(r.URL.Path, "/")}) {
	case route{http.MethodGet, "/queue"}:
		writeJSON(w, http.StatusOK, h.queue.Snapshot())
	case route{http.MethodPost, "/queue/add"}:
		h.add(w, r)
	case route{http.MethodPost, "/queue/remove"}:
		h.remove(w, r)
	case route{http.MethodPost, "/queue/undo"}:
		h.queue.UndoChanges(r.Context())
		writeJSON(w, http.StatusOK, h.queue.Snapshot())
	case route{http.MethodPost, "/queue/save"}:
		writeJSON(w, http.StatusOK, h.queue.SaveChanges(r.Context()))
	case route{http.MethodGet, "/channels"}:
		h.channels(w, r)
	default:
		if h.knownPath(r.URL.Path) {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *QueueHandler) knownPath(path string) bool {
	switch strings.TrimSuffix(path, "/") {
	case "/queue", "/queue/add", "/queue/remove", "/queue/undo", "/queue/save", "/channels":
		return true
	}
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func (h *QueueHandler) add(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Input string `json:"input"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	res := h.queue.AddChannel(r.Context(), body.Input)
	h.logger.Debug("add", "input", body.Input, "success", res.Success, "message", res.Message)
	writeJSON(w, http.StatusOK, res)
}

func (h *QueueHandler) remove(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	url, ok := channelurl.Normalize(body.URL)
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.Fail(tasks.MsgInvalidChannel))
		return
	}
	h.queue.QueueForDeletion(models.Channel{URL: url})
	writeJSON(w, http.StatusOK, h.queue.Snapshot())
}

func (h *QueueHandler) channels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := tasks.ListParams{
		Search:    q.Get("search"),
		SortOrder: models.ParseSortOrder(q.Get("sort")),
		SubFolder: q.Get("subFolder"),
	}

	var err error
	if v := q.Get("page"); v != "" {
		if params.Page, err = strconv.Atoi(v); err != nil || params.Page < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
	}
	if v := q.Get("pageSize"); v != "" {
		if params.PageSize, err = strconv.Atoi(v); err != nil || params.PageSize < 1 {
			writeError(w, http.StatusBadRequest, "pageSize must be a positive integer")
			return
		}
	}
	if v := q.Get("append"); v != "" {
		if params.Append, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "append must be a boolean")
			return
		}
	}

	writeJSON(w, http.StatusOK, h.list.SetParams(r.Context(), params))
}
