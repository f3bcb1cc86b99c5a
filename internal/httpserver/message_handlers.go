package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chatnslate/internal/language"
	"chatnslate/internal/service"
)

type createMessageRequest struct {
	Text string `json:"text"`
}

// @Summary      Send a message
// @Description  Creates a message, detects its language, and notifies subscribers
// @Tags         messages
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        conversationID path string true "Conversation ID"
// @Param        input body createMessageRequest true "Message input"
// @Success      201  {object}  service.MessageView
// @Failure      403  {object}  map[string]string
// @Router       /conversations/{conversationID}/messages [post]
func handleCreateMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		convID := chi.URLParam(r, "conversationID")

		var req createMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		view, err := msgSvc.Send(r.Context(), convID, user.ID, req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

// @Summary      List messages
// @Description  Lists conversation messages with the viewer's translations applied
// @Tags         messages
// @Security     BearerAuth
// @Produce      json
// @Param        conversationID path string true "Conversation ID"
// @Param        limit query int false "Max messages"
// @Success      200  {array}  service.MessageView
// @Failure      403  {object}  map[string]string
// @Router       /conversations/{conversationID}/messages [get]
func handleListMessages(msgSvc *service.MessageService, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		convID := chi.URLParam(r, "conversationID")

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > defaultLimit {
			limit = defaultLimit
		}

		views, err := msgSvc.List(r.Context(), convID, user.ID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if views == nil {
			views = []*service.MessageView{}
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// @Summary      Delete a message
// @Description  Deletes own message and notifies subscribers
// @Tags         messages
// @Security     BearerAuth
// @Param        messageID path string true "Message ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /messages/{messageID} [delete]
func handleDeleteMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		msgID := chi.URLParam(r, "messageID")

		if err := msgSvc.Delete(r.Context(), msgID, user.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type saveTranslationRequest struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// @Summary      Save a translation
// @Description  Stores a client-computed translation on the message
// @Tags         messages
// @Security     BearerAuth
// @Accept       json
// @Param        messageID path string true "Message ID"
// @Param        input body saveTranslationRequest true "Translation input"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Router       /messages/{messageID}/translate [post]
func handleSaveTranslation(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgID := chi.URLParam(r, "messageID")

		var req saveTranslationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := msgSvc.SaveTranslation(r.Context(), msgID, language.Code(req.Language), req.Text); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
