// Package server exposes the transmission chain over HTTP.
package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/dsp/spectrum"
	"github.com/cwbudde/algo-txchain/internal/store"
	"github.com/cwbudde/algo-txchain/linecode"
	"github.com/cwbudde/algo-txchain/measure/ber"
	"github.com/cwbudde/algo-txchain/pipeline"
	freqstats "github.com/cwbudde/algo-txchain/stats/frequency"
)

const (
	runsEndpoint = "/txchain/v1/runs"
	berEndpoint  = "/txchain/v1/ber"
	psdEndpoint  = "/txchain/v1/psd"

	// MaxTrials bounds the trials per noise level of one BER request.
	MaxTrials = 1000
	// MaxLevels bounds the noise levels of one BER request.
	MaxLevels = 64
	// MaxBits bounds the message length of one run.
	MaxBits = 100000
	// MaxSamples bounds the length of every waveform of one run, so
	// bits times samples per bit.
	MaxSamples = 10_000_000
	// MaxTaps bounds the Nyquist filter length.
	MaxTaps = 4095
	// MaxLowpassOrder bounds the demodulator low-pass order.
	MaxLowpassOrder = 32
	// MaxBodyBytes bounds a request body.
	MaxBodyBytes = 64 << 20

	serverStage = "server"

	defaultListLimit = 50
)

// Server serves the HTTP API. Runs are persisted in the store.
type Server struct {
	store  *store.Store
	router *gin.Engine
}

// New returns a Server backed by st.
func New(st *store.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), limitBody)
	s := &Server{store: st, router: r}

	r.POST(runsEndpoint, s.createRun)
	r.GET(runsEndpoint, s.listRuns)
	r.GET(runsEndpoint+"/:id", s.getRun)
	r.POST(berEndpoint, s.sweep)
	r.POST(psdEndpoint, s.psd)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RunRequest is the body of POST /txchain/v1/runs. Config fields that are
// left out keep the values of pipeline.DefaultConfig.
type RunRequest struct {
	Bits   string          `json:"bits"`
	Config pipeline.Config `json:"config"`
}

// RunResponse summarizes a run.
type RunResponse struct {
	store.Run
	SamplesPerBit int      `json:"samples_per_bit"`
	Carrier       float64  `json:"carrier"`
	ClockOK       bool     `json:"clock_ok"`
	SNR           *float64 `json:"snr_db,omitempty"`
}

func (s *Server) createRun(c *gin.Context) {
	req := RunRequest{Config: pipeline.DefaultConfig()}
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	bits, err := linecode.ParseBits(req.Bits)
	if err != nil {
		abortWithStageError(c, err)
		return
	}
	if len(bits) > MaxBits {
		abortWithStageError(c, core.NewStageError(serverStage, core.ErrInvalidInput, "bits", len(bits)))
		return
	}
	if err := checkWork(req.Config, len(bits)); err != nil {
		abortWithStageError(c, err)
		return
	}

	res, err := pipeline.Run(c.Request.Context(), bits, req.Config)
	if err != nil {
		abortWithStageError(c, err)
		return
	}
	run := store.NewRun(res)
	if err := s.store.Put(c.Request.Context(), run); err != nil {
		glog.Warningf("server: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}
	glog.V(1).Infof("server: run %s, %d bits, %d errors", run.ID, len(bits), res.BitErrors)

	c.JSON(http.StatusCreated, RunResponse{
		Run:           run,
		SamplesPerBit: res.SamplesPerBit,
		Carrier:       res.Carrier,
		ClockOK:       res.Clock.OK,
		SNR:           finite(res.SNR),
	})
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		abort(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		glog.Warningf("server: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) listRuns(c *gin.Context) {
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			abort(c, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	runs, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		glog.Warningf("server: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	c.JSON(http.StatusOK, runs)
}

// SweepRequest is the body of POST /txchain/v1/ber.
type SweepRequest struct {
	Config       pipeline.Config `json:"config"`
	Levels       []float64       `json:"levels"`
	Trials       int             `json:"trials"`
	BitsPerTrial int             `json:"bits_per_trial"`
	Seed         uint64          `json:"seed"`
}

// SweepPoint is one point of a BER curve.
type SweepPoint struct {
	NoiseLevel float64  `json:"noise_level"`
	Trials     int      `json:"trials"`
	Bits       int      `json:"bits"`
	Errors     int      `json:"errors"`
	Rate       float64  `json:"rate"`
	Lost       int      `json:"lost"`
	SNR        *float64 `json:"snr_db,omitempty"`
}

func (s *Server) sweep(c *gin.Context) {
	req := SweepRequest{Config: pipeline.DefaultConfig(), Trials: 1}
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if req.Trials > MaxTrials {
		abortWithStageError(c, core.NewStageError(serverStage, core.ErrInvalidConfiguration, "trials", req.Trials))
		return
	}
	if req.BitsPerTrial > MaxBits {
		abortWithStageError(c, core.NewStageError(serverStage, core.ErrInvalidConfiguration, "bits_per_trial", req.BitsPerTrial))
		return
	}
	if len(req.Levels) > MaxLevels {
		abortWithStageError(c, core.NewStageError(serverStage, core.ErrInvalidConfiguration, "levels", len(req.Levels)))
		return
	}
	bitsPerTrial := req.BitsPerTrial
	if bitsPerTrial == 0 {
		bitsPerTrial = ber.DefaultBitsPerTrial
	}
	if err := checkWork(req.Config, bitsPerTrial); err != nil {
		abortWithStageError(c, err)
		return
	}

	points, err := ber.Sweep(c.Request.Context(), ber.Config{
		Pipeline:     req.Config,
		BitsPerTrial: req.BitsPerTrial,
		Seed:         req.Seed,
	}, req.Levels, req.Trials)
	if err != nil {
		abortWithStageError(c, err)
		return
	}

	out := make([]SweepPoint, len(points))
	for i, p := range points {
		out[i] = SweepPoint{
			NoiseLevel: p.NoiseLevel,
			Trials:     p.Trials,
			Bits:       p.Bits,
			Errors:     p.Errors,
			Rate:       p.Rate,
			Lost:       p.Lost,
			SNR:        finite(p.SNR),
		}
	}
	c.JSON(http.StatusOK, out)
}

// PSDRequest is the body of POST /txchain/v1/psd.
type PSDRequest struct {
	Samples       []float64 `json:"samples"`
	SampleRate    float64   `json:"sample_rate"`
	SegmentLength int       `json:"segment_length"`
}

// PSDResponse is the Welch estimate of the posted signal and its summary.
type PSDResponse struct {
	Freqs         []float64 `json:"freqs"`
	PSD           []float64 `json:"psd"`
	PeakFrequency float64   `json:"peak_frequency"`
	Centroid      float64   `json:"centroid"`
	Bandwidth     float64   `json:"bandwidth"`
	TotalPower    float64   `json:"total_power"`
}

func (s *Server) psd(c *gin.Context) {
	req := PSDRequest{SegmentLength: spectrum.DefaultSegmentLength}
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if len(req.Samples) > MaxSamples {
		abortWithStageError(c, core.NewStageError(serverStage, core.ErrInvalidInput, "samples", len(req.Samples)))
		return
	}
	freqs, psd, err := spectrum.Welch(req.Samples, req.SampleRate, spectrum.WithSegmentLength(req.SegmentLength))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	st := freqstats.Calculate(psd, req.SampleRate)
	c.JSON(http.StatusOK, PSDResponse{
		Freqs:         freqs,
		PSD:           psd,
		PeakFrequency: st.PeakFrequency,
		Centroid:      st.Centroid,
		Bandwidth:     st.Bandwidth,
		TotalPower:    st.TotalPower,
	})
}

// checkWork validates cfg and rejects runs of bits bits whose waveforms or
// filters would exceed the per-request limits. The sample count is computed
// in floating point so absurd rates cannot overflow it.
func checkWork(cfg pipeline.Config, bits int) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	perBit := math.Round(cfg.PeriodMs * cfg.SampleRate / 1000)
	if samples := float64(bits) * perBit; samples > MaxSamples {
		return core.NewStageError(serverStage, core.ErrInvalidConfiguration, "samples", samples)
	}
	if cfg.Shaping.Taps > MaxTaps {
		return core.NewStageError(serverStage, core.ErrInvalidConfiguration, "shaping.taps", cfg.Shaping.Taps)
	}
	if cfg.Demod.LowpassOrder > MaxLowpassOrder {
		return core.NewStageError(serverStage, core.ErrInvalidConfiguration, "demod.lowpass_order", cfg.Demod.LowpassOrder)
	}
	if cfg.Demod.Smoothing > MaxSamples {
		return core.NewStageError(serverStage, core.ErrInvalidConfiguration, "demod.smoothing", cfg.Demod.Smoothing)
	}
	return nil
}

func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	c.Next()
}

// statusOf maps the error taxonomy of the chain to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrInsufficientSignal):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrInvalidConfiguration):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithStageError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		glog.Warningf("server: %v", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "stage": core.StageOf(err)})
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
