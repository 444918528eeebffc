package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hubenschmidt/speakscore-engine/internal/alignclient"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
	"github.com/hubenschmidt/speakscore-engine/internal/jobqueue"
	"github.com/hubenschmidt/speakscore-engine/internal/llmannotate"
	"github.com/hubenschmidt/speakscore-engine/internal/phonemeclient"
	"github.com/hubenschmidt/speakscore-engine/internal/pipeline"
	"github.com/hubenschmidt/speakscore-engine/internal/response"
	"github.com/hubenschmidt/speakscore-engine/internal/sttclient"
)

// fakeTranscriber/fakeAligner/fakeDetector/fakeLLMClient mirror the small
// fakes in internal/pipeline's own tests; redeclared here since package
// main can't import unexported test helpers across packages.

type fakeTranscriber struct {
	result *sttclient.Result
	err    error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int, opts sttclient.Options) (*sttclient.Result, error) {
	return f.result, f.err
}

type fakeAligner struct {
	result *alignclient.Result
	err    error
}

func (f *fakeAligner) Align(ctx context.Context, samples []float32, sampleRate int, words []engine.WordRecord, opts alignclient.Options) (*alignclient.Result, error) {
	return f.result, f.err
}

type fakeDetector struct {
	result *phonemeclient.Result
	err    error
}

func (f *fakeDetector) Detect(ctx context.Context, samples []float32, sampleRate int) (*phonemeclient.Result, error) {
	return f.result, f.err
}

type fakeLLMClient struct {
	ann *engine.LLMAnnotation
	err error
}

func (f *fakeLLMClient) Annotate(ctx context.Context, transcript string, speechCtx engine.SpeechContext) (*engine.LLMAnnotation, error) {
	return f.ann, f.err
}

func words6sec() []engine.WordRecord {
	return []engine.WordRecord{
		{Word: "I", Start: 0.0, End: 0.2, Confidence: 0.95},
		{Word: "think", Start: 0.2, End: 0.5, Confidence: 0.95},
		{Word: "that", Start: 0.8, End: 1.0, Confidence: 0.95},
		{Word: "travel", Start: 1.0, End: 1.5, Confidence: 0.9},
		{Word: "broadens", Start: 1.5, End: 2.0, Confidence: 0.9},
		{Word: "the", Start: 2.0, End: 2.1, Confidence: 0.95},
		{Word: "mind", Start: 2.1, End: 2.5, Confidence: 0.92},
		{Word: "and", Start: 3.0, End: 3.1, Confidence: 0.95},
		{Word: "helps", Start: 3.1, End: 3.4, Confidence: 0.9},
		{Word: "us", Start: 3.4, End: 3.5, Confidence: 0.95},
		{Word: "grow", Start: 3.5, End: 3.9, Confidence: 0.9},
	}
}

func segments6sec() []engine.SegmentRecord {
	return []engine.SegmentRecord{
		{Text: "I think that travel broadens the mind", Start: 0.0, End: 2.5, AvgWordConfidence: 0.92},
		{Text: "and helps us grow", Start: 3.0, End: 3.9, AvgWordConfidence: 0.92},
	}
}

// buildTestWAV writes a minimal mono 16-bit PCM WAV carrying an audible
// sine tone, long enough to clear audioload.Load's duration and
// speech-energy gates.
func buildTestWAV(durationSec float64) []byte {
	const sampleRate = 16000
	n := int(durationSec * sampleRate)
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*220*float64(i)/sampleRate))
	}

	var data bytes.Buffer
	binary.Write(&data, binary.LittleEndian, samples)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())
	return buf.Bytes()
}

// newTestDeps builds a fully wired deps with a real local-only job store
// and worker, and a fast-mode-sufficient fake pipeline.
func newTestDeps() *deps {
	store := jobqueue.NewStore(nil, time.Hour)
	pl := pipeline.New(pipeline.Config{
		STT: &fakeTranscriber{result: &sttclient.Result{
			Words:    words6sec(),
			Segments: segments6sec(),
		}},
		Aligner: &fakeAligner{result: &alignclient.Result{Words: words6sec()}},
		Phoneme: &fakeDetector{result: &phonemeclient.Result{}},
		LLM: llmannotate.NewRouter(map[string]llmannotate.Client{
			"openai": &fakeLLMClient{ann: &engine.LLMAnnotation{
				ClarityScore:   4,
				FlowControl:    engine.FlowControlStable,
				ListenerEffort: engine.ListenerEffortLow,
			}},
		}, "openai"),
		LLMEngine:     "openai",
		EngineVersion: "test",
	})

	d := &deps{
		jobStore:       store,
		pipeline:       pl,
		maxUploadBytes: 10 << 20,
		pending:        &sync.Map{},
	}
	d.worker = jobqueue.NewWorker(store, d.runJob, 4)
	return d
}

func multipartUpload(t *testing.T, filename string, audio []byte, speechContext string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(audio); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	if speechContext != "" {
		if err := mw.WriteField("speech_context", speechContext); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func TestHandleSubmit_MissingOwnerUnauthorized(t *testing.T) {
	d := newTestDeps()
	body, contentType := multipartUpload(t, "clip.wav", buildTestWAV(6), "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assess/fast", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	d.handleSubmit("fast")(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSubmit_Accepted(t *testing.T) {
	d := newTestDeps()
	body, contentType := multipartUpload(t, "clip.wav", buildTestWAV(6), "conversational")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assess/fast", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Owner-Id", "owner-1")
	rec := httptest.NewRecorder()

	d.handleSubmit("fast")(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var status response.JobStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.JobID == "" {
		t.Error("expected a non-empty job_id")
	}
	if status.Status != "queued" {
		t.Errorf("expected status queued, got %q", status.Status)
	}
}

func TestHandleSubmit_InvalidSpeechContextRejected(t *testing.T) {
	d := newTestDeps()
	body, contentType := multipartUpload(t, "clip.wav", buildTestWAV(6), "not-a-real-context")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assess/fast", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Owner-Id", "owner-1")
	rec := httptest.NewRecorder()

	d.handleSubmit("fast")(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleGetResult_NotFound(t *testing.T) {
	d := newTestDeps()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/does-not-exist", nil)
	req.SetPathValue("job_id", "does-not-exist")
	req.Header.Set("X-Owner-Id", "owner-1")
	rec := httptest.NewRecorder()

	d.handleGetResult(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleGetResult_MissingOwnerUnauthorized(t *testing.T) {
	d := newTestDeps()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/anything", nil)
	req.SetPathValue("job_id", "anything")
	rec := httptest.NewRecorder()

	d.handleGetResult(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleGetResult_WrongOwnerDenied(t *testing.T) {
	d := newTestDeps()
	jobID := d.jobStore.CreateJob(t.Context(), "owner-1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID, nil)
	req.SetPathValue("job_id", jobID)
	req.Header.Set("X-Owner-Id", "owner-2")
	rec := httptest.NewRecorder()

	d.handleGetResult(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleGetResult_QueuedThenCompletedWithDetailTiers(t *testing.T) {
	d := newTestDeps()
	body, contentType := multipartUpload(t, "clip.wav", buildTestWAV(6), "conversational")

	submitReq := httptest.NewRequest(http.MethodPost, "/api/v1/assess/fast", body)
	submitReq.Header.Set("Content-Type", contentType)
	submitReq.Header.Set("X-Owner-Id", "owner-1")
	submitRec := httptest.NewRecorder()
	d.handleSubmit("fast")(submitRec, submitReq)

	if submitRec.Code != http.StatusAccepted {
		t.Fatalf("submit failed: %d: %s", submitRec.Code, submitRec.Body.String())
	}
	var queued response.JobStatus
	if err := json.Unmarshal(submitRec.Body.Bytes(), &queued); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	jobID := queued.JobID

	deadline := time.Now().Add(5 * time.Second)
	var job *jobqueue.Job
	for time.Now().Before(deadline) {
		j, err := d.jobStore.GetStatus(t.Context(), jobID)
		if err != nil {
			t.Fatalf("get status: %v", err)
		}
		if j.Status == jobqueue.StatusCompleted || j.Status == jobqueue.StatusError {
			job = j
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if job == nil {
		t.Fatal("job did not reach a terminal state in time")
	}
	if job.Status != jobqueue.StatusCompleted {
		t.Fatalf("expected job to complete, got status %q error %q", job.Status, job.Error)
	}

	for _, tc := range []string{"", "feedback", "full"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID+"?detail="+tc, nil)
		req.SetPathValue("job_id", jobID)
		req.Header.Set("X-Owner-Id", "owner-1")
		rec := httptest.NewRecorder()

		d.handleGetResult(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("detail=%q: expected 200, got %d: %s", tc, rec.Code, rec.Body.String())
		}
		var generic map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &generic); err != nil {
			t.Fatalf("detail=%q: decode response: %v", tc, err)
		}
		if _, ok := generic["overall_band"]; !ok {
			t.Errorf("detail=%q: expected overall_band in every response tier", tc)
		}
		if tc == "full" {
			if _, ok := generic["word_timestamps"]; !ok {
				t.Error("detail=full: expected word_timestamps present")
			}
		}
		if tc == "" {
			if _, ok := generic["transcript"]; ok {
				t.Error("detail=base: expected transcript to be absent from the base tier")
			}
		}
	}
}

func TestHandleModelStatus_NilCheckerReturnsEmptyList(t *testing.T) {
	d := newTestDeps()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/models/status", nil)
	rec := httptest.NewRecorder()

	d.handleModelStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %v", list)
	}
}
