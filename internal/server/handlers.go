package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stochfold/pkg/buildinfo"
	"github.com/matzehuels/stochfold/pkg/errors"
	pkgio "github.com/matzehuels/stochfold/pkg/io"
	"github.com/matzehuels/stochfold/pkg/pipeline"
	"github.com/matzehuels/stochfold/pkg/sampling"
	"github.com/matzehuels/stochfold/pkg/store"
)

// runResponse is the body of successful sampling requests.
type runResponse struct {
	Document *pkgio.Document `json:"document"`
	Stats    statsResponse   `json:"stats"`
}

type statsResponse struct {
	Cached       bool    `json:"cached"`
	Duplicates   int     `json:"duplicates,omitempty"`
	TrackerNodes int     `json:"tracker_nodes,omitempty"`
	FoldMillis   float64 `json:"fold_ms"`
	SampleMillis float64 `json:"sample_ms"`
}

// streamLine is one NDJSON line of /v1/nr/stream.
type streamLine struct {
	Structure   string  `json:"structure,omitempty"`
	Energy      float64 `json:"energy,omitempty"`
	Probability float64 `json:"probability,omitempty"`

	Done      bool   `json:"done,omitempty"`
	Emitted   int    `json:"emitted,omitempty"`
	Exhausted bool   `json:"exhausted,omitempty"`
	Error     string `json:"error,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	opts, err := decodeOptions(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.NonRedundant = false
	s.execute(w, r, opts)
}

func (s *Server) handleNonRedundant(w http.ResponseWriter, r *http.Request) {
	opts, err := decodeOptions(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.NonRedundant = true
	s.execute(w, r, opts)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, opts pipeline.Options) {
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse{
		Document: res.Document,
		Stats: statsResponse{
			Cached:       res.CacheInfo.FoldHit,
			Duplicates:   res.Stats.Duplicates,
			TrackerNodes: res.Stats.TrackerNodes,
			FoldMillis:   float64(res.Stats.FoldTime.Microseconds()) / 1000,
			SampleMillis: float64(res.Stats.SampleTime.Microseconds()) / 1000,
		},
	})
}

// handleStream writes structures as NDJSON while they are drawn. Errors
// before the first structure get a regular error response; later errors
// end the stream with an error line.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	opts, err := decodeOptions(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.NonRedundant = true
	opts.Workers = 1
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	kT := opts.Model.KT()
	started := false
	n, exhausted, err := s.runner.Stream(r.Context(), opts, func(smp sampling.Draw) bool {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		line := streamLine{
			Structure:   smp.Structure.DotBracket(),
			Energy:      -kT * math.Log(smp.Weight),
			Probability: smp.Probability,
		}
		if err := enc.Encode(line); err != nil {
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	})
	if err != nil && !started {
		s.writeError(w, err)
		return
	}
	if !started {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
	}
	last := streamLine{Done: true, Emitted: n, Exhausted: exhausted}
	if err != nil {
		last.Error = errors.UserMessage(err)
	}
	_ = enc.Encode(last)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v))
			return
		}
		limit = n
	}
	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	run, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func runID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if !store.ValidID(id) {
		return "", errors.New(errors.ErrCodeInvalidInput, "malformed run id %q", id)
	}
	return id, nil
}

func decodeOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body")
	}
	return opts, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: errors.UserMessage(err)}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
