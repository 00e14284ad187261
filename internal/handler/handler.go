// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/archive"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/model"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/repository"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// ArchiveFilename is the download name of the zipped events file.
const ArchiveFilename = "events.zip"

// EventHandler holds all HTTP handlers for the events API.
type EventHandler struct {
	svc    *service.EventService
	logger *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// NewRouter builds the full route table with its middleware stack.
func NewRouter(h *EventHandler, logger *slog.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(logger))
	r.Use(CORS(allowedOrigins))

	r.Get("/health", HealthCheck)
	r.Get("/hello-world", HelloWorld)

	r.Route("/api/v1/eventos", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/quantidadetotal/", h.CountEvents)
		r.Get("/compactar/", h.ArchiveEvents)
		r.Get("/filtro/", h.FilterEvents)
		r.Get("/hash/", h.HashEvents)
		r.Get("/{id}", h.GetEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
	})

	return r
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// eventBody is the request shape for create and update. It also accepts the
// id field that responses carry so a fetched record can be sent back as-is;
// the id is ignored in favour of the path or the assigned one.
type eventBody struct {
	model.EventInput
	ID *int `json:"id,omitempty"`
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (model.EventInput, error) {
	var body eventBody
	if err := decodeJSON(w, r, &body); err != nil {
		return model.EventInput{}, err
	}
	return body.EventInput, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service and repository errors onto status codes.
// Anything unrecognised is logged and reported as a 500 with fallback.
func (h *EventHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, repository.ErrIDsExhausted):
		writeError(w, http.StatusConflict, "no event ids left")
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, "events file not found")
	default:
		h.logger.Error(fallback,
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// eventID parses the {id} path parameter, writing a 400 when it is not an
// integer.
func eventID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "event id must be an integer")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) (*int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New(key + " must be an integer")
	}
	return &v, nil
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// CreateEvent handles POST /api/v1/eventos/
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	in, err := decodeEvent(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /api/v1/eventos/
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /api/v1/eventos/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	event, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to get event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /api/v1/eventos/{id}
// Every field is replaced; the id is kept.
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	in, err := decodeEvent(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /api/v1/eventos/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	event, err := h.svc.DeleteEvent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to delete event")
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: "event '" + event.Title + "' deleted successfully",
	})
}

// CountEvents handles GET /api/v1/eventos/quantidadetotal/
func (h *EventHandler) CountEvents(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.CountEvents(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to count events")
		return
	}
	writeJSON(w, http.StatusOK, model.QuantityResponse{Quantity: n})
}

// ArchiveEvents handles GET /api/v1/eventos/compactar/
// Streams the events file zipped as an attachment.
func (h *EventHandler) ArchiveEvents(w http.ResponseWriter, r *http.Request) {
	_, zr, err := h.svc.Archive(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to archive events")
		return
	}

	w.Header().Set("Content-Type", archive.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+ArchiveFilename)
	w.Header().Set("Content-Length", strconv.FormatInt(zr.Size(), 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, zr); err != nil {
		h.logger.Warn("archive download interrupted",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())),
		)
	}
}

// FilterEvents handles GET /api/v1/eventos/filtro/
// Query: title, date, location, capacity_min, capacity_max.
func (h *EventHandler) FilterEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.EventFilter{
		Title:    q.Get("title"),
		Date:     q.Get("date"),
		Location: q.Get("location"),
	}

	var err error
	if f.CapacityMin, err = queryInt(r, "capacity_min"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.CapacityMax, err = queryInt(r, "capacity_max"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.svc.FilterEvents(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to filter events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HashEvents handles GET /api/v1/eventos/hash/
func (h *EventHandler) HashEvents(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Hash(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to hash events")
		return
	}
	writeJSON(w, http.StatusOK, model.HashResponse{HashSHA256: sum})
}

// ─── Status endpoints ─────────────────────────────────────────────────────────

// HelloWorld handles GET /hello-world
func HelloWorld(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Academic Event Manager - API is running!"})
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
