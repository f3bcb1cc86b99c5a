package httpserver

import (
	"encoding/json"
	"net/http"

	"chatnslate/internal/domain"
	"chatnslate/internal/service"
)

type addContactRequest struct {
	ContactUserID string `json:"contact_user_id"`
}

// @Summary      Add a contact
// @Tags         contacts
// @Security     BearerAuth
// @Accept       json
// @Param        input body addContactRequest true "Contact input"
// @Success      201
// @Failure      409  {object}  map[string]string
// @Router       /contacts [post]
func handleAddContact(contactSvc *service.ContactService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)

		var req addContactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := contactSvc.Add(r.Context(), user.ID, req.ContactUserID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

// @Summary      List contacts
// @Tags         contacts
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  domain.Profile
// @Router       /contacts [get]
func handleListContacts(contactSvc *service.ContactService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)

		contacts, err := contactSvc.List(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if contacts == nil {
			contacts = []*domain.Profile{}
		}
		writeJSON(w, http.StatusOK, contacts)
	}
}
