package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sgprime/sgprime/internal/model"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeData writes a success envelope carrying data.
func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, model.APIResponse{Success: true, Data: data})
}

// writeList writes a success envelope carrying a list plus its count.
func writeList(w http.ResponseWriter, data interface{}, count int) {
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Count: &count, Data: data})
}

// writeMessage writes a success envelope with only a message.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.APIResponse{Success: true, Message: message})
}

// writeError writes a failure envelope with the given message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.APIResponse{Success: false, Message: message})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// urlID extracts the {id} route parameter as an int64. Returns false after
// writing a 400 response when the parameter is not a valid id.
func urlID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// queryBool extracts a boolean query parameter. Returns false if the
// parameter is missing or not "true"/"1".
func queryBool(r *http.Request, key string) bool {
	val := r.URL.Query().Get(key)
	return val == "true" || val == "1"
}
