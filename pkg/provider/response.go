// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// decodeSimpleTranslation extracts a translated string from a provider
// response shaped as {"translatedText": "..."} or a bare JSON string,
// the two response shapes the free web translation endpoints in this
// domain return.
func decodeSimpleTranslation(resp *http.Response) (string, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var wrapped struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.TranslatedText != "" {
		return wrapped.TranslatedText, nil
	}

	var bare string
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	return string(body), nil
}

// decodeStatusedTranslation extracts a translated string plus an
// explicit application-level response status from a response shaped
// as {"responseData":{"translatedText":"..."},"responseStatus":200},
// the shape the public fallback endpoint uses to report throttling
// inside a 200 OK HTTP response.
func decodeStatusedTranslation(resp *http.Response) (text string, status int, err error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, fmt.Errorf("read response: %w", err)
	}

	var parsed struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus int `json:"responseStatus"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", 0, fmt.Errorf("decode response: %w", err)
	}
	if parsed.ResponseStatus == 0 {
		parsed.ResponseStatus = resp.StatusCode
	}
	return parsed.ResponseData.TranslatedText, parsed.ResponseStatus, nil
}
