package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jurix/jurix/infrastructure/http/middleware"
	"github.com/jurix/jurix/infrastructure/http/response"
	"github.com/jurix/jurix/internal/domain"
)

// maxBodyBytes bounds request bodies; contract content is capped well below it
const maxBodyBytes = 1 << 20

// actorFrom returns the authenticated actor or writes a 401
func actorFrom(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return domain.Actor{}, false
	}
	return actor, true
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, name+" must be an integer")
	}
	return n, nil
}

// queryString returns a pointer to a non-empty query parameter
func queryString(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}

// pathUUID reads a route variable that must be a UUID and returns its canonical form
func pathUUID(r *http.Request, name string) (string, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return "", domain.NewValidationError(name, name+" must be a valid UUID")
	}
	return id.String(), nil
}

// queryUUID is queryString for parameters matched against UUID columns
func queryUUID(r *http.Request, name string) (*string, error) {
	raw := queryString(r, name)
	if raw == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, domain.NewValidationError(name, name+" must be a valid UUID")
	}
	canonical := id.String()
	return &canonical, nil
}
