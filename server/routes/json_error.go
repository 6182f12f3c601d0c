// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"encoding/json"
	"net/http"
)

type ErrorJSON struct {
	Error string `json:"error"`
}

// JSONError writes data as an uncacheable JSON response with statusCode.
func JSONError(w http.ResponseWriter, data ErrorJSON, statusCode int) error {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	w.WriteHeader(statusCode)

	return json.NewEncoder(w).Encode(data)
}
