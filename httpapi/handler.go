// Package httpapi is the REST boundary of the chat subsystem: the
// message CRUD surface whose durable writes drive the event
// dispatcher. Authorization and write-then-notify ordering live in
// the service layer; handlers only parse, delegate and encode.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"gridchat/contract"
	"gridchat/domain"
	gcerrors "gridchat/errors"
	"gridchat/services"
	"gridchat/storage"
)

// maxAttachmentMemory bounds how much of a multipart upload is held
// in memory before spilling to temp files.
const maxAttachmentMemory = 32 << 20

type Handler struct {
	log     *slog.Logger
	service services.IChatService
	files   storage.Disk
}

func NewHandler(log *slog.Logger, service services.IChatService, files storage.Disk) *Handler {
	return &Handler{log: log, service: service, files: files}
}

func (h *Handler) Register(r *mux.Router, validator contract.IdentityValidator) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authenticate(validator))
	api.HandleFunc("/chats/{room_id}/messages/", h.createMessage).Methods(http.MethodPost)
	api.HandleFunc("/chats/{room_id}/messages/", h.listMessages).Methods(http.MethodGet)
	api.HandleFunc("/messages/{message_id}/", h.updateMessage).Methods(http.MethodPatch)
	api.HandleFunc("/messages/{message_id}/", h.deleteMessage).Methods(http.MethodDelete)
	api.HandleFunc("/messages/{message_id}/read/", h.markRead).Methods(http.MethodPost)
}

// createMessage accepts a multipart form with "content" and/or "file"
// (at least one required), plus an optional "job" reference. The
// attachment's type is sniffed from its bytes, never trusted from the
// client's filename.
func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAttachmentMemory); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected a multipart form")
		return
	}

	cmd := services.CreateMessageCommand{
		Room:    mux.Vars(r)["room_id"],
		Sender:  requesterID(r),
		Content: r.FormValue("content"),
	}
	if job := r.FormValue("job"); job != "" {
		cmd.Job = &job
	}

	file, _, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		mtype, err := mimetype.DetectReader(file)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "unreadable attachment")
			return
		}
		if _, err := file.Seek(0, 0); err != nil {
			writeError(w, err)
			return
		}
		ref, err := h.files.Save(mtype.Extension(), file)
		if err != nil {
			writeError(w, err)
			return
		}
		cmd.File = &ref
	}

	message, err := h.service.CreateMessage(r.Context(), cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.ToProjection(message))
}

// listMessages pages newest first. Listing marks the returned
// messages viewed/read for the requester; the next-page cursor is
// exposed in the X-Cursor header.
func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	room := domain.RoomID(mux.Vars(r)["room_id"])
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	messages, next, err := h.service.ListMessages(r.Context(), requesterID(r), room, cursor)
	if err != nil {
		writeError(w, err)
		return
	}
	if next != nil && *next != "" {
		w.Header().Set("X-Cursor", *next)
	}
	writeJSON(w, http.StatusOK, lo.Map(messages, func(m domain.Message, _ int) domain.MessageProjection {
		return domain.ToProjection(m)
	}))
}

func (h *Handler) updateMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := uuid.Parse(mux.Vars(r)["message_id"])
	if err != nil {
		writeError(w, gcerrors.ErrMessageNotFound)
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		writeDetail(w, http.StatusBadRequest, "expected a JSON body with 'content'")
		return
	}

	message, err := h.service.EditMessage(r.Context(), services.EditMessageCommand{
		Editor:    requesterID(r),
		MessageID: messageID,
		Content:   body.Content,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ToProjection(message))
}

func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := uuid.Parse(mux.Vars(r)["message_id"])
	if err != nil {
		writeError(w, gcerrors.ErrMessageNotFound)
		return
	}
	if err := h.service.DeleteMessage(r.Context(), requesterID(r), messageID); err != nil {
		writeError(w, err)
		return
	}
	writeDetail(w, http.StatusNoContent, "Message deleted successfully.")
}

// markRead is the explicit counterpart of the listing side effect: it
// records the requester as a reader of one message.
func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	messageID, err := uuid.Parse(mux.Vars(r)["message_id"])
	if err != nil {
		writeError(w, gcerrors.ErrMessageNotFound)
		return
	}
	if err := h.service.MarkMessageRead(r.Context(), "", messageID, requesterID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeError(w http.ResponseWriter, err error) {
	writeDetail(w, gcerrors.MapToHTTPStatus(err), err.Error())
}
