package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chatnslate/internal/domain"
	"chatnslate/internal/service"
)

// @Summary      Search users
// @Description  Search profiles by username or display name
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        q      query  string  true   "Search query"
// @Param        limit  query  int     false  "Max results"
// @Success      200  {array}  domain.Profile
// @Router       /users [get]
func handleSearchUsers(profileSvc *service.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		query := r.URL.Query().Get("q")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		results, err := profileSvc.Search(r.Context(), query, user.ID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if results == nil {
			results = []*domain.Profile{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}

// @Summary      Get user by ID
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        userID path string true "User ID"
// @Success      200  {object}  domain.Profile
// @Failure      404  {object}  map[string]string
// @Router       /users/{userID} [get]
func handleGetUser(profileSvc *service.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userID")
		p, err := profileSvc.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p.PublicView())
	}
}

// @Summary      Get own profile
// @Tags         profile
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  domain.Profile
// @Router       /profile [get]
func handleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, CurrentUser(r).PublicView())
	}
}

type updateProfileRequest struct {
	DisplayName       *string `json:"display_name"`
	PreferredLanguage *string `json:"preferred_language"`
	AvatarURL         *string `json:"avatar_url"`
}

// @Summary      Update own profile
// @Description  Update display name, preferred language, or avatar
// @Tags         profile
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body updateProfileRequest true "Settings"
// @Success      200  {object}  domain.Profile
// @Failure      400  {object}  map[string]string
// @Router       /profile [put]
func handleUpdateProfile(profileSvc *service.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)

		var req updateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		updated, err := profileSvc.UpdateSettings(r.Context(), user.ID, service.SettingsInput{
			DisplayName:       req.DisplayName,
			PreferredLanguage: req.PreferredLanguage,
			AvatarURL:         req.AvatarURL,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated.PublicView())
	}
}
