package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal/catalog"
	"github.com/mdubravic83/POtranslate/internal/jobs"
	"github.com/mdubravic83/POtranslate/internal/store"
	"github.com/mdubravic83/POtranslate/internal/translation"
)

const notFoundDetail = "Translation not found"

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "PO Translation Tool API"})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) languages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"languages": translation.Languages()})
}

func (s *Server) translate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("File exceeds %d bytes", s.maxUploadBytes))
			return
		}
		s.writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	up := jobs.Upload{
		Filename:   header.Filename,
		SourceLang: r.FormValue("source_lang"),
		TargetLang: r.FormValue("target_lang"),
	}
	// reject before reading the content
	if up.TargetLang == "" {
		up.TargetLang = translation.DefaultTargetLang
	}
	if err := translation.ValidateUpload(up.Filename, up.TargetLang); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	up.Content, err = io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	// a job runs to completion even when the client goes away
	res, err := s.service.Translate(context.WithoutCancel(r.Context()), up)
	if err != nil {
		s.translateError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) translateError(w http.ResponseWriter, err error) {
	var ve *translation.ValidationError
	if errors.As(err, &ve) {
		s.writeError(w, http.StatusBadRequest, ve.Error())
		return
	}

	s.logger.Error("processing upload", zap.Error(err))
	var fe *catalog.FormatError
	if errors.As(err, &fe) {
		s.writeError(w, http.StatusInternalServerError, "Error processing file: "+fe.Error())
		return
	}
	var pe *jobs.ProcessingError
	if errors.As(err, &pe) {
		s.writeError(w, http.StatusInternalServerError, "Error processing file: "+shortError(pe.Err))
		return
	}
	s.writeError(w, http.StatusInternalServerError, "Internal server error")
}

// shortError keeps only the outermost message of a wrapped error chain.
func shortError(err error) string {
	msg := err.Error()
	if inner := errors.Unwrap(err); inner != nil {
		if trimmed, ok := strings.CutSuffix(msg, ": "+inner.Error()); ok && trimmed != "" {
			return trimmed
		}
	}
	return msg
}

func (s *Server) listTranslations(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.List(r.Context())
	if err != nil {
		s.logger.Error("listing translations", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) getTranslation(w http.ResponseWriter, r *http.Request) {
	job, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) downloadTranslation(w http.ResponseWriter, r *http.Request) {
	name, body, err := s.service.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.lookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Error("writing download", zap.Error(err))
	}
}

func (s *Server) lookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, notFoundDetail)
		return
	}
	s.logger.Error("loading translation", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "Internal server error")
}

type statusRequest struct {
	ClientName string `json:"client_name"`
}

func (s *Server) createStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientName == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "client_name is required")
		return
	}

	check, err := s.service.RecordStatus(r.Context(), req.ClientName)
	if err != nil {
		s.logger.Error("recording status", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, check)
}

func (s *Server) listStatus(w http.ResponseWriter, r *http.Request) {
	checks, err := s.service.ListStatus(r.Context())
	if err != nil {
		s.logger.Error("listing status checks", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, checks)
}
