// internal/coach/coach.go
package coach

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"nutripal/internal/models"
)

// Turn is one user submission together with the context it is sent in.
type Turn struct {
	History []models.ChatMessage
	Text    string
	Image   string // data URL, optional
	Profile *models.UserProfile
}

// Coach runs one user turn through the AI service. A failed call never
// becomes an error: it is logged and answered with FallbackReply.
type Coach struct {
	gen     Generator
	limiter *rate.Limiter
	latency *LatencyRecorder
}

type Option func(*Coach)

// WithRequestsPerMinute spaces calls to the AI service. Zero or less means
// unlimited.
func WithRequestsPerMinute(n int) Option {
	return func(c *Coach) {
		if n <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
	}
}

func WithLatencyRecorder(r *LatencyRecorder) Option {
	return func(c *Coach) {
		c.latency = r
	}
}

func New(gen Generator, opts ...Option) *Coach {
	c := &Coach{
		gen:     gen,
		limiter: rate.NewLimiter(rate.Inf, 0),
		latency: NewLatencyRecorder(DefaultLatencyWindow),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coach) Latency() *LatencyRecorder {
	return c.latency
}

// Reply returns the interpreted answer to turn. The only error is
// ErrInvalidImage, which is the caller's to report.
func (c *Coach) Reply(ctx context.Context, turn Turn) (Result, error) {
	instruction := ComposeInstruction(turn.Profile)
	req, err := AssembleRequest(turn.History, turn.Text, turn.Image, instruction)
	if err != nil {
		return Result{}, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		log.Error("AI call not attempted", "error", err)
		return General(FallbackReply), nil
	}

	start := time.Now()
	raw, err := c.gen.Generate(ctx, req)
	c.latency.Record(start, time.Since(start))
	if err != nil {
		log.Error("error calling AI service", "error", err)
		return General(FallbackReply), nil
	}

	result, err := Interpret(raw)
	if err != nil {
		log.Error("error interpreting AI response", "error", err)
		return General(FallbackReply), nil
	}

	log.Debug("AI reply interpreted", "kind", result.Kind)
	return result, nil
}

// DefaultLatencyWindow is how many recent calls the recorder keeps.
const DefaultLatencyWindow = 30

type LatencySample struct {
	At         time.Time `json:"at"`
	DurationMs int64     `json:"duration_ms"`
}

// LatencyRecorder keeps the durations of the most recent AI calls.
type LatencyRecorder struct {
	mu      sync.Mutex
	size    int
	samples []LatencySample
}

func NewLatencyRecorder(size int) *LatencyRecorder {
	if size <= 0 {
		size = DefaultLatencyWindow
	}
	return &LatencyRecorder{size: size}
}

func (r *LatencyRecorder) Record(at time.Time, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, LatencySample{At: at, DurationMs: d.Milliseconds()})
	if len(r.samples) > r.size {
		r.samples = r.samples[len(r.samples)-r.size:]
	}
}

// Samples returns the recorded calls, oldest first.
func (r *LatencyRecorder) Samples() []LatencySample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LatencySample(nil), r.samples...)
}
