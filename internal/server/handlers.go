package server

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/canvasport/pkg/dispatch"
	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/storage"
)

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMessage, err, "read request body")
	}
	return data, nil
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp := s.dispatcher.DispatchJSON(r.Context(), data)
	writeJSON(w, statusFor(resp.Code), resp)
}

func (s *Server) handleListBundles(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list bundles", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []storage.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handlePutBundle(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := portable.ReadJSON(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidMessage, err, "decode bundle"))
		return
	}
	rec, err := s.store.Put(r.Context(), r.URL.Query().Get("name"), b)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetBundle(w http.ResponseWriter, r *http.Request) {
	format := portable.FormatJSON
	if f := r.URL.Query().Get("format"); f != "" {
		parsed, err := portable.ParseFormat(f)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidInput, err, "format"))
			return
		}
		format = parsed
	}

	b, rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}

	var buf bytes.Buffer
	if err := portable.Write(b, &buf, format); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.ID+"."+string(format)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func contentType(f portable.Format) string {
	switch f {
	case portable.FormatYAML:
		return "application/yaml"
	case portable.FormatZip:
		return "application/zip"
	}
	return "application/json"
}

func (s *Server) handleDeleteBundle(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImportBundle(w http.ResponseWriter, r *http.Request) {
	b, _, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	resp := s.dispatcher.Dispatch(r.Context(), dispatch.Request{Type: dispatch.TypeImport, Bundle: b})
	writeJSON(w, statusFor(resp.Code), resp)
}
