package server

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RezDev94/ferris-db/internal/logger"
)

// NewHTTPRouter serves the line protocol over HTTP. POST / runs each line of
// the request body in order and returns the concatenated responses.
func NewHTTPRouter(exec Executor) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger.Printer{}, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK\n"))
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var out bytes.Buffer
		err := Serve(r.Body, &out, exec)
		if out.Len() == 0 {
			msg := "empty command"
			if err != nil {
				msg = err.Error()
			}
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		// Lines already executed may have changed the store, so their
		// responses are returned even when the body was cut short.
		if err != nil {
			logger.Warnf("http: read body: %v", err)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(out.Bytes())
	})
	return r
}
