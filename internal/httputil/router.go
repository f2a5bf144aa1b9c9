package httputil

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter returns a new router instance that answers unknown routes with
// an HTTPError.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NewError(http.StatusNotFound, errNotFound).(*HTTPError).ErrorResponse(w, r)
	})
	return r
}
