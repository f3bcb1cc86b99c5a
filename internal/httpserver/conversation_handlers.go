package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatnslate/internal/domain"
	"chatnslate/internal/service"
)

type startConversationRequest struct {
	OtherUserID string `json:"other_user_id"`
}

// @Summary      Start a direct conversation
// @Description  Returns the existing conversation with the other user, or creates one
// @Tags         conversations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body startConversationRequest true "Conversation input"
// @Success      201  {object}  domain.Conversation
// @Failure      400  {object}  map[string]string
// @Router       /conversations [post]
func handleStartConversation(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)

		var req startConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		conv, err := convSvc.StartDirect(r.Context(), user.ID, req.OtherUserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, conv)
	}
}

// @Summary      List conversations
// @Tags         conversations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  domain.Conversation
// @Router       /conversations [get]
func handleListConversations(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)

		convs, err := convSvc.ListForUser(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if convs == nil {
			convs = []*domain.Conversation{}
		}
		writeJSON(w, http.StatusOK, convs)
	}
}

// @Summary      Get a conversation
// @Tags         conversations
// @Security     BearerAuth
// @Produce      json
// @Param        conversationID path string true "Conversation ID"
// @Success      200  {object}  domain.Conversation
// @Failure      404  {object}  map[string]string
// @Router       /conversations/{conversationID} [get]
func handleGetConversation(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		convID := chi.URLParam(r, "conversationID")

		conv, err := convSvc.Get(r.Context(), convID, user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

// @Summary      Delete a conversation
// @Description  Deletes the conversation with its messages and participants
// @Tags         conversations
// @Security     BearerAuth
// @Param        conversationID path string true "Conversation ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /conversations/{conversationID} [delete]
func handleDeleteConversation(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		convID := chi.URLParam(r, "conversationID")

		if err := convSvc.Delete(r.Context(), convID, user.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type participantResponse struct {
	Participant *domain.Profile `json:"participant"`
}

// @Summary      Get the other participant
// @Description  Returns the counterpart's profile for a conversation the caller participates in
// @Tags         conversations
// @Security     BearerAuth
// @Produce      json
// @Param        conversationID path string true "Conversation ID"
// @Success      200  {object}  participantResponse
// @Failure      403  {object}  map[string]string
// @Router       /conversations/{conversationID}/participants [get]
func handleGetParticipant(convSvc *service.ConversationService, participants domain.ParticipantRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		convID := chi.URLParam(r, "conversationID")

		// Membership check included
		if _, err := convSvc.Get(r.Context(), convID, user.ID); err != nil {
			writeError(w, err)
			return
		}
		list, err := participants.ListParticipants(r.Context(), convID)
		if err != nil {
			writeError(w, err)
			return
		}
		for _, p := range list {
			if p.ID != user.ID {
				writeJSON(w, http.StatusOK, participantResponse{Participant: p.PublicView()})
				return
			}
		}
		// Participant rows may still be settling right after creation; fall
		// back to the resolver chain instead of returning nothing.
		counterpart, err := convSvc.ResolveCounterpart(r.Context(), convID, user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, participantResponse{Participant: counterpart})
	}
}

// @Summary      Resolve the other participant
// @Description  Resolves the conversation counterpart, retrying while participant rows settle
// @Tags         conversations
// @Security     BearerAuth
// @Produce      json
// @Param        conversationID path string true "Conversation ID"
// @Success      200  {object}  domain.Profile
// @Router       /conversations/{conversationID}/counterpart [get]
func handleGetCounterpart(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		convID := chi.URLParam(r, "conversationID")

		counterpart, err := convSvc.ResolveCounterpartWithRetry(r.Context(), convID, user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, counterpart)
	}
}
