package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/chatconnect/internal/service"
)

// ChatHandler serves the conversation and message endpoints.
type ChatHandler struct {
	chat   *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chat *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// HandleCreateConversation starts a new thread.
//
// HTTP: POST /v1/conversations
// Body: {name}
func (h *ChatHandler) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	conv, err := h.chat.CreateConversation(r.Context(), in.Name)
	if err != nil {
		h.logError("create conversation", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "", conv)
}

// HandleListConversations returns all conversations.
//
// HTTP: GET /v1/conversations
func (h *ChatHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.chat.ListConversations(r.Context())
	if err != nil {
		h.logError("list conversations", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", convs)
}

// HandleGetConversation returns one conversation.
//
// HTTP: GET /v1/conversations/{id}
func (h *ChatHandler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.chat.GetConversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logError("get conversation", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", conv)
}

// HandleRenameConversation updates a conversation's name.
//
// HTTP: PUT /v1/conversations/{id}
// Body: {name}
func (h *ChatHandler) HandleRenameConversation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	conv, err := h.chat.RenameConversation(r.Context(), chi.URLParam(r, "id"), in.Name)
	if err != nil {
		h.logError("rename conversation", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", conv)
}

// HandleDeleteConversation removes a conversation and, via cascade, its
// messages and memberships.
//
// HTTP: DELETE /v1/conversations/{id}
func (h *ChatHandler) HandleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.DeleteConversation(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logError("delete conversation", err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleJoinConversation adds a user to a conversation.
//
// HTTP: POST /v1/conversations/{id}/members
// Body: {user_id}
func (h *ChatHandler) HandleJoinConversation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID string `json:"user_id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	membership, err := h.chat.JoinConversation(r.Context(), chi.URLParam(r, "id"), in.UserID)
	if err != nil {
		h.logError("join conversation", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "", membership)
}

// HandleSendMessage posts a message into a conversation.
//
// HTTP: POST /v1/conversations/{id}/messages
// Body: {sender_id, message}
func (h *ChatHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SenderID string `json:"sender_id"`
		Message  string `json:"message"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	msg, err := h.chat.SendMessage(r.Context(), chi.URLParam(r, "id"), in.SenderID, in.Message)
	if err != nil {
		h.logError("send message", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "", msg)
}

// HandleListMessages returns a conversation's messages oldest-first.
//
// HTTP: GET /v1/conversations/{id}/messages
func (h *ChatHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chat.ListMessages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logError("list messages", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", msgs)
}

func (h *ChatHandler) logError(op string, err error) {
	h.logger.Error("request failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
