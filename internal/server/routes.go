package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/verte-zerg/typerace/internal/api"
)

const maxBody = 64 << 10

// Handler returns the HTTP routes of the service.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.accessLog)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	const base = "/competitions/{id}"
	r.HandleFunc(base, s.getCompetition).Methods(http.MethodGet)
	r.HandleFunc(base+"/submit-results", s.submitResults).Methods(http.MethodPost)
	r.HandleFunc(base+"/fetch-results", s.fetchResults).Methods(http.MethodGet)
	r.HandleFunc(base+"/competition-status", s.competitionStatus).Methods(http.MethodGet)
	r.HandleFunc(base+"/start-now", s.action(s.StartNow)).Methods(http.MethodPost)
	r.HandleFunc(base+"/stop-competition", s.action(s.Stop)).Methods(http.MethodPost)
	r.HandleFunc(base+"/restart-competition", s.action(s.Restart)).Methods(http.MethodPost)
	return r
}

func (s *Service) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", s.clock.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Service) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) getCompetition(w http.ResponseWriter, r *http.Request) {
	desc, err := s.Descriptor(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.NewCompetitionResponse(desc))
}

func (s *Service) submitResults(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Join(ErrInvalid, err))
		return
	}
	err := s.Submit(r.Context(), mux.Vars(r)["id"],
		r.Header.Get(api.HeaderParticipantID),
		r.Header.Get(api.HeaderParticipantName),
		req.Submission())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ActionResponse{Success: true})
}

func (s *Service) fetchResults(w http.ResponseWriter, r *http.Request) {
	standings, err := s.Results(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := api.ResultsResponse{Success: true, Results: make([]api.ResultJSON, 0, len(standings))}
	for _, st := range standings {
		resp.Results = append(resp.Results, api.ResultJSON{
			ParticipantID:   st.ParticipantID,
			ParticipantName: st.ParticipantName,
			WPM:             st.WPM,
			Accuracy:        st.Accuracy,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Service) competitionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.Status(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Status: string(status)})
}

func (s *Service) action(fn func(ctx context.Context, id, token string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(r.Context(), mux.Vars(r)["id"], r.Header.Get(api.HeaderOrganizerToken)); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.ActionResponse{Success: true})
	}
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ErrInvalid):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	s.writeJSON(w, status, api.ActionResponse{Success: false, Error: err.Error()})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Debug().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

// ListenAndServe serves the handler on addr until ctx is done, then shuts
// down gracefully.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("HTTP server stopped")
	return nil
}
