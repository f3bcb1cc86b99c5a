package httpserver

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"chatnslate/internal/language"
	"chatnslate/internal/translation"
)

type translateRequest struct {
	Action         string `json:"action"` // "detect" or "translate"
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
	SourceLanguage string `json:"source_language"`
}

type translateResponse struct {
	Text             string `json:"text,omitempty"`
	DetectedLanguage string `json:"detected_language,omitempty"`
	Error            string `json:"error,omitempty"`
}

// @Summary      Translate or detect language
// @Description  Runs ad-hoc detection or translation. Provider failures return 200 with the original text and an error field so chat keeps working.
// @Tags         translate
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body translateRequest true "Translate input"
// @Success      200  {object}  translateResponse
// @Failure      400  {object}  map[string]string
// @Router       /translate [post]
func handleTranslate(provider translation.Provider, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req translateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if req.Text == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
			return
		}

		switch req.Action {
		case "detect":
			code, err := provider.Detect(r.Context(), req.Text)
			if err != nil {
				log.Warn().Err(err).Msg("translate: detect failed")
				writeJSON(w, http.StatusOK, translateResponse{
					DetectedLanguage: string(language.Default),
					Error:            "detection unavailable",
				})
				return
			}
			writeJSON(w, http.StatusOK, translateResponse{DetectedLanguage: string(code)})

		case "translate":
			if req.TargetLanguage == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target_language is required"})
				return
			}
			target := language.Normalize(req.TargetLanguage)
			// An omitted source stays empty so the provider prompts without
			// a source language instead of assuming English.
			var source language.Code
			if req.SourceLanguage != "" {
				source = language.Normalize(req.SourceLanguage)
			}
			text, err := provider.Translate(r.Context(), req.Text, target, source)
			if err != nil {
				log.Warn().Err(err).Str("target", string(target)).Msg("translate: translate failed")
				writeJSON(w, http.StatusOK, translateResponse{
					Text:  req.Text,
					Error: "translation unavailable",
				})
				return
			}
			writeJSON(w, http.StatusOK, translateResponse{Text: text})

		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "action must be \"detect\" or \"translate\""})
		}
	}
}

type languageEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// @Summary      List supported languages
// @Tags         translate
// @Produce      json
// @Success      200  {array}  languageEntry
// @Router       /languages [get]
func handleListLanguages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := make([]languageEntry, 0, len(language.Supported))
		for code, name := range language.Supported {
			entries = append(entries, languageEntry{Code: string(code), Name: name})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })
		writeJSON(w, http.StatusOK, entries)
	}
}
