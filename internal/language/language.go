// Package language holds the fixed set of languages the translation
// pipeline understands.
package language

import "strings"

// Code is a two-letter identifier for a supported language.
type Code string

// Default is used whenever detection fails or a code falls outside the
// supported set.
const Default Code = "en"

// Supported maps every supported code to its display name.
var Supported = map[Code]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese (Simplified)",
	"ar": "Arabic",
	"hi": "Hindi",
	"bn": "Bengali",
	"te": "Telugu",
	"mr": "Marathi",
	"ta": "Tamil",
	"gu": "Gujarati",
	"kn": "Kannada",
	"ml": "Malayalam",
	"pa": "Punjabi",
}

// IsSupported reports whether c is one of the supported codes.
func IsSupported(c Code) bool {
	_, ok := Supported[c]
	return ok
}

// Normalize lowercases raw, strips any BCP 47 region suffix ("en-US" -> "en")
// and falls back to Default for anything outside the supported set.
func Normalize(raw string) Code {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(s, "-_"); i >= 0 {
		s = s[:i]
	}
	c := Code(s)
	if !IsSupported(c) {
		return Default
	}
	return c
}

// Name returns the display name for c, or the code itself when unknown.
func Name(c Code) string {
	if n, ok := Supported[c]; ok {
		return n
	}
	return string(c)
}
