package count

import (
	"fmt"
	"io"
)

// SearchPosition describes the state of a count at a branching
// decision.
type SearchPosition interface {
	Decisions() int
	Depth() int
	CacheSize() int
	CacheHits() int
}

type Tracer interface {
	Trace(p SearchPosition)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ SearchPosition) {
}

// LoggingTracer writes one line every Every decisions, or every
// decision when Every is not positive.
type LoggingTracer struct {
	Writer io.Writer
	Every  int
}

func (t LoggingTracer) Trace(p SearchPosition) {
	if t.Every > 0 && p.Decisions()%t.Every != 0 {
		return
	}
	fmt.Fprintf(t.Writer, "decision %d depth %d cache %d hits %d\n", p.Decisions(), p.Depth(), p.CacheSize(), p.CacheHits())
}
