package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
	"github.com/hubenschmidt/speakscore-engine/internal/jobqueue"
	"github.com/hubenschmidt/speakscore-engine/internal/metrics"
	"github.com/hubenschmidt/speakscore-engine/internal/modelhealth"
	"github.com/hubenschmidt/speakscore-engine/internal/pipeline"
	"github.com/hubenschmidt/speakscore-engine/internal/response"
)

// pendingJob is the submitted-but-not-yet-run input a worker goroutine
// picks up by job_id once a pool slot frees (§4.9, §5).
type pendingJob struct {
	input pipeline.Input
	mode  string // "full" or "fast"
}

// deps bundles everything the HTTP handlers need, mirroring the teacher's
// routes.go `deps` struct passed to registerRoutes.
type deps struct {
	jobStore       *jobqueue.Store
	worker         *jobqueue.Worker
	pipeline       *pipeline.Pipeline
	modelChecker   *modelhealth.Checker
	maxUploadBytes int64

	pending *sync.Map // jobID -> pendingJob
}

// registerRoutes wires the three public endpoints (§6.1) to mux, plus an
// operational model-health endpoint. d is a pointer throughout so every
// handler shares the same pending map and worker regardless of receiver
// style.
func registerRoutes(mux *http.ServeMux, d *deps) {
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/v1/models/status", d.handleModelStatus)
	mux.HandleFunc("POST /api/v1/assess/full", d.handleSubmit("full"))
	mux.HandleFunc("POST /api/v1/assess/fast", d.handleSubmit("fast"))
	mux.HandleFunc("GET /api/v1/jobs/{job_id}", d.handleGetResult)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleModelStatus reports liveness of the STT/align/phoneme collaborators
// so operators can see degradation coming before it trips a job (§5).
func (d *deps) handleModelStatus(w http.ResponseWriter, r *http.Request) {
	if d.modelChecker == nil {
		writeJSON(w, http.StatusOK, []modelhealth.ServiceInfo{})
		return
	}
	writeJSON(w, http.StatusOK, d.modelChecker.StatusAll(r.Context()))
}

// handleSubmit builds the multipart-upload handler for mode ("full" or
// "fast"), §6.1 "Submit full"/"Submit fast".
func (d *deps) handleSubmit(mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := ownerIDFrom(r)
		if ownerID == "" {
			writeAppError(w, apperr.New(apperr.KindUnauthorized, "missing owner identity"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, d.maxUploadBytes)
		if err := r.ParseMultipartForm(d.maxUploadBytes); err != nil {
			writeAppError(w, apperr.Wrap(apperr.KindTooLarge, "upload exceeds size limit", err))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeAppError(w, apperr.Wrap(apperr.KindBadRequest, "missing audio file field", err))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeAppError(w, apperr.Wrap(apperr.KindInternal, "read upload", err))
			return
		}

		speechCtx, err := parseSpeechContext(r.FormValue("speech_context"))
		if err != nil {
			writeAppError(w, err)
			return
		}

		jobID := d.jobStore.CreateJob(r.Context(), ownerID)
		d.pending.Store(jobID, pendingJob{
			input: pipeline.Input{
				JobID:         jobID,
				AudioData:     data,
				DeclaredExt:   extOf(header.Filename),
				SpeechContext: speechCtx,
				ScoringConfig: map[string]any{"speech_context": string(speechCtx), "mode": mode},
			},
			mode: mode,
		})
		metrics.JobsTotal.WithLabelValues(mode).Inc()
		metrics.JobsActive.Inc()

		d.worker.Submit(context.Background(), jobID)

		writeJSON(w, http.StatusAccepted, response.BuildQueuedOrProcessing(jobID, "queued"))
	}
}

// runJob is the jobqueue.JobFunc the worker pool invokes: it looks up the
// pending input, runs the requested pipeline, marshals the EngineOutput
// at +full detail (the richest tier the response builder supports; the
// get-result handler re-projects down to whatever tier was requested),
// and returns it as the job's stored payload.
func (d *deps) runJob(ctx context.Context, jobID string) (string, error) {
	defer metrics.JobsActive.Dec()

	v, ok := d.pending.LoadAndDelete(jobID)
	if !ok {
		return "", apperr.New(apperr.KindInternal, "no pending input for job")
	}
	pj := v.(pendingJob)

	var out *engine.EngineOutput
	var err error
	switch pj.mode {
	case "fast":
		out, err = d.pipeline.RunFast(ctx, pj.input)
	default:
		out, err = d.pipeline.RunFull(ctx, pj.input)
	}
	if err != nil {
		metrics.JobsFailed.WithLabelValues(string(apperr.KindOf(err))).Inc()
		return "", err
	}

	metrics.OverallBand.Observe(float64(out.Scores.Overall))
	metrics.Confidence.Observe(out.Confidence.Overall)

	full := response.BuildFull(out)
	data, err := response.Marshal(full)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "marshal engine output", err)
	}
	return string(data), nil
}

// handleGetResult serves §6.1 "Get result": job_id in path, optional
// ?detail=feedback|full.
func (d *deps) handleGetResult(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerIDFrom(r)
	if ownerID == "" {
		writeAppError(w, apperr.New(apperr.KindUnauthorized, "missing owner identity"))
		return
	}

	jobID := r.PathValue("job_id")
	owned, err := d.jobStore.VerifyOwner(r.Context(), jobID, ownerID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if !owned {
		writeAppError(w, apperr.New(apperr.KindDenied, "job not owned by caller"))
		return
	}

	job, err := d.jobStore.GetStatus(r.Context(), jobID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	switch job.Status {
	case jobqueue.StatusQueued, jobqueue.StatusProcessing:
		writeJSON(w, http.StatusOK, response.BuildQueuedOrProcessing(jobID, string(job.Status)))
		return
	case jobqueue.StatusError:
		writeJSON(w, http.StatusOK, response.BuildErrorResponse(jobID, job.Error))
		return
	}

	// completed: job.Payload holds the +full tier JSON produced by runJob;
	// re-decode and re-project to whatever detail level was requested so
	// a single stored payload serves all three tiers.
	full, decodeErr := decodeStoredPayload(job.Payload)
	if decodeErr != nil {
		writeAppError(w, apperr.Wrap(apperr.KindInternal, "decode stored result", decodeErr))
		return
	}

	switch r.URL.Query().Get("detail") {
	case "full":
		writeJSON(w, http.StatusOK, full)
	case "feedback":
		writeJSON(w, http.StatusOK, full.Feedback)
	default:
		writeJSON(w, http.StatusOK, full.Base)
	}
}

func ownerIDFrom(r *http.Request) string {
	return r.Header.Get("X-Owner-Id")
}

func parseSpeechContext(raw string) (engine.SpeechContext, error) {
	if raw == "" {
		return engine.ContextConversational, nil
	}
	switch engine.SpeechContext(raw) {
	case engine.ContextConversational, engine.ContextNarrative, engine.ContextPresentation, engine.ContextInterview:
		return engine.SpeechContext(raw), nil
	default:
		return "", apperr.New(apperr.KindBadRequest, "invalid speech_context: "+raw)
	}
}

func extOf(filename string) string {
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '.' {
			return filename[i:]
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := response.Marshal(v)
	if err != nil {
		slog.Error("marshal response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeAppError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	slog.Warn("request_error", "kind", kind, "status", status, "error", err)
	writeJSON(w, status, map[string]string{"error": err.Error(), "kind": string(kind)})
}

func decodeStoredPayload(payload string) (response.Full, error) {
	var full response.Full
	err := response.Unmarshal([]byte(payload), &full)
	return full, err
}
