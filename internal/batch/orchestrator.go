// Package batch generates several image variations for one prompt through
// the image function, one call at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/artify/api/internal/logging"
	"github.com/artify/api/internal/metrics"
	"github.com/artify/api/internal/model"
)

const (
	MinCount = 1
	MaxCount = 4
)

var (
	ErrEmptyPrompt  = errors.New("prompt is required")
	ErrInvalidCount = fmt.Errorf("count must be between %d and %d", MinCount, MaxCount)
)

// Generator produces one image. client.FunctionsClient satisfies it.
type Generator interface {
	GenerateImage(ctx context.Context, req *model.ImageGenerateRequest) (*model.ImageGenerateResponse, error)
}

// Request describes one batch.
type Request struct {
	Prompt         string
	Count          int
	Model          model.ImageModel
	Size           string
	Quality        string
	Style          string
	NegativePrompt string
}

type Status string

const (
	StatusFull    Status = "full"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// State is the progress of a running batch. Completed+Remaining always
// equals Requested.
type State struct {
	Requested int
	Completed int
	Failed    int
	Results   []model.GenerationResult
}

// Remaining is the number of calls not yet made.
func (s State) Remaining() int {
	return s.Requested - s.Completed
}

// Progress is called after every iteration, success or not.
type Progress func(State)

// Report is the outcome of a finished batch. Results are newest first.
type Report struct {
	Status    Status
	Requested int
	Succeeded int
	Failed    int
	Results   []model.GenerationResult
	Errors    []error
	Message   string
}

type Orchestrator struct {
	gen    Generator
	now    func() time.Time
	logger zerolog.Logger
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func New(gen Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:    gen,
		now:    time.Now,
		logger: logging.WithComponent("batch"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// VariationPrompt is the prompt sent for iteration i of a batch of count.
func VariationPrompt(prompt string, i, count int) string {
	if count > 1 {
		return fmt.Sprintf("%s, variation %d, unique interpretation", prompt, i+1)
	}
	return prompt
}

// Run issues req.Count calls in order, each after the previous one has
// finished. A failed call is recorded and the batch moves on. Invalid input
// returns no report. A cancelled context stops the batch and returns the
// report of the calls that finished together with ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, req Request, progress Progress) (*Report, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if req.Count < MinCount || req.Count > MaxCount {
		return nil, ErrInvalidCount
	}

	state := State{Requested: req.Count}
	var errs []error
	var cancelErr error

	for i := 0; i < req.Count; i++ {
		if cancelErr = ctx.Err(); cancelErr != nil {
			break
		}

		resp, err := o.gen.GenerateImage(ctx, &model.ImageGenerateRequest{
			Prompt:         VariationPrompt(prompt, i, req.Count),
			Model:          req.Model,
			Size:           req.Size,
			Quality:        req.Quality,
			Style:          req.Style,
			NegativePrompt: req.NegativePrompt,
		})
		state.Completed++

		switch {
		case err != nil:
			state.Failed++
			errs = append(errs, fmt.Errorf("variation %d: %w", i+1, err))
			o.logger.Warn().Err(err).Int("variation", i+1).Int("count", req.Count).Msg("variation failed")
		case resp == nil || resp.ImageURL == "":
			state.Failed++
			errs = append(errs, fmt.Errorf("variation %d: empty image", i+1))
			o.logger.Warn().Int("variation", i+1).Msg("variation returned no image")
		default:
			state.Results = append(state.Results, model.GenerationResult{
				ID:        uuid.NewString(),
				URL:       resp.ImageURL,
				Prompt:    prompt,
				Model:     resp.Model,
				CreatedAt: o.now(),
			})
		}

		if progress != nil {
			progress(state)
		}
	}

	report := newReport(state, errs)
	metrics.BatchResults.WithLabelValues(string(report.Status)).Inc()
	if cancelErr != nil {
		o.logger.Warn().
			Err(cancelErr).
			Int("succeeded", report.Succeeded).
			Int("completed", state.Completed).
			Int("requested", report.Requested).
			Msg("batch cancelled")
		return report, cancelErr
	}
	o.logger.Info().
		Str("status", string(report.Status)).
		Int("succeeded", report.Succeeded).
		Int("requested", report.Requested).
		Msg("batch finished")
	return report, nil
}

func newReport(state State, errs []error) *Report {
	n := len(state.Results)
	results := make([]model.GenerationResult, n)
	for i, r := range state.Results {
		results[n-1-i] = r
	}

	r := &Report{
		Requested: state.Requested,
		Succeeded: n,
		Failed:    state.Failed,
		Results:   results,
		Errors:    errs,
	}
	switch {
	case n == 0:
		r.Status = StatusFailed
		r.Message = "Failed to generate images"
	case n < state.Requested:
		r.Status = StatusPartial
		r.Message = fmt.Sprintf("%d/%d images generated", n, state.Requested)
	default:
		r.Status = StatusFull
		plural := ""
		if n > 1 {
			plural = "s"
		}
		r.Message = fmt.Sprintf("%d image%s generated!", n, plural)
	}
	return r
}
