package http

import (
	"github.com/gorilla/mux"
)

// NewRouter configures the versioned download API routes.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/video-info", handler.VideoInfo).Methods("GET")
	api.HandleFunc("/download", handler.CreateDownload).Methods("POST")
	api.HandleFunc("/download-status/{id}", handler.DownloadStatus).Methods("GET")
	return r
}
