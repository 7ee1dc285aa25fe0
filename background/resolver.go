package background

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"
)

// DefaultTimeout bounds each candidate attempt.
const DefaultTimeout = time.Second

var errEmptyImage = errors.New("background: empty image")

// StageKind is the resolver's position in its search.
type StageKind int

const (
	StagePending StageKind = iota
	StageResolved
	StageExhausted
)

func (k StageKind) String() string {
	switch k {
	case StagePending:
		return "pending"
	case StageResolved:
		return "resolved"
	case StageExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Stage is Pending(Index), Resolved(Index) or Exhausted.
type Stage struct {
	Kind  StageKind
	Index int
}

func (s Stage) String() string {
	if s.Kind == StageExhausted {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s(%d)", s.Kind, s.Index)
}

// Result is the outcome of a search. Index is -1 and Fallback is set when
// the image is the placeholder.
type Result struct {
	Image     image.Image
	Index     int
	Location  string
	Fallback  bool
	Status    string
	Discarded int
	Stages    []Stage
}

// Size returns the intrinsic dimensions the canvas is sized to.
func (r Result) Size() (int, int) {
	if r.Image == nil {
		return 0, 0
	}
	b := r.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Resolver tries Candidates in order and settles on the first one that
// loads within Timeout. Attempts are strictly sequential.
type Resolver struct {
	Candidates  []string
	Timeout     time.Duration
	Loader      Loader
	Placeholder Placeholder

	// Trace, when set, is called on every stage transition.
	Trace func(Stage)
}

type attempt struct {
	index int
	img   image.Image
	err   error
}

// Resolve runs the search. It does not return an error: when every
// candidate fails, times out or ctx ends, the Result carries the
// placeholder.
func (r *Resolver) Resolve(ctx context.Context) Result {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	loader := r.Loader
	if loader == nil {
		loader = MultiLoader{}
	}

	res := Result{Index: -1}
	// Sized so that an abandoned attempt can always deliver and exit.
	results := make(chan attempt, len(r.Candidates))

	cancels := make([]context.CancelFunc, 0, len(r.Candidates))
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	transition := func(s Stage) {
		res.Stages = append(res.Stages, s)
		if r.Trace != nil {
			r.Trace(s)
		}
	}

search:
	for i, loc := range r.Candidates {
		current := Stage{Kind: StagePending, Index: i}
		transition(current)

		attemptCtx, cancel := context.WithCancel(ctx)
		cancels = append(cancels, cancel)
		go func(index int, location string) {
			img, err := loader.Load(attemptCtx, location)
			results <- attempt{index: index, img: img, err: err}
		}(i, loc)

		timer := time.NewTimer(timeout)
		for {
			select {
			case a := <-results:
				if a.index != current.Index {
					res.Discarded++
					log.Printf("resolver: discarded late result for candidate %d", a.index)
					continue
				}
				if a.err == nil && a.img != nil && !a.img.Bounds().Empty() {
					timer.Stop()
					cancel()
					transition(Stage{Kind: StageResolved, Index: i})
					res.Image = a.img
					res.Index = i
					res.Location = loc
					w, h := res.Size()
					res.Status = fmt.Sprintf("Field image loaded (%dx%d)", w, h)
					log.Printf("resolver: loaded %s (%dx%d)", loc, w, h)
					return res
				}
				if a.err == nil {
					a.err = errEmptyImage
				}
				log.Printf("resolver: candidate %d %s: %v", i, loc, a.err)
			case <-timer.C:
				log.Printf("resolver: candidate %d %s: timed out after %s", i, loc, timeout)
			case <-ctx.Done():
				timer.Stop()
				cancel()
				log.Printf("resolver: search stopped: %v", ctx.Err())
				break search
			}
			break
		}
		timer.Stop()
		cancel()
	}

	transition(Stage{Kind: StageExhausted})
	ph := r.Placeholder
	if ph.Width == 0 && ph.Height == 0 && ph.Background == nil {
		ph = DefaultPlaceholder()
	}
	res.Image = ph.Image()
	res.Fallback = true
	res.Status = "Field image not found, using placeholder grid"
	return res
}
