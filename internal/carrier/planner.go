package carrier

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/illarion/varicrypt/internal/lsb"
)

const (
	MinScale     = 1.1  // Smallest growth factor applied when resizing
	MaxSide      = 8192 // Largest width or height the planner will produce
	maxResizings = 4
)

// Planner makes sure an image carrier can hold a bitstream, growing it when
// allowed.
type Planner struct {
	Logger *slog.Logger
}

// ScaleFactor returns the per-side growth factor for a carrier with
// available units that must hold needed units.
func ScaleFactor(needed, available int) float64 {
	return math.Max(MinScale, math.Ceil(math.Sqrt(float64(needed)/float64(available))))
}

// Fit returns c if it has room for needed units, otherwise a resized copy.
// Fixed carriers are never resized and fail with lsb.ErrCapacityExceeded.
func (p Planner) Fit(c *ImageCarrier, needed int) (*ImageCarrier, error) {
	for i := 0; c.Capacity() < needed; i++ {
		available := c.Capacity()
		if c.Fixed || available == 0 || i >= maxResizings {
			return nil, &lsb.CapacityError{Needed: needed, Available: available}
		}

		f := ScaleFactor(needed, available)
		s := c.Size()
		w := int(math.Ceil(float64(s.X) * f))
		h := int(math.Ceil(float64(s.Y) * f))
		if w > MaxSide || h > MaxSide {
			return nil, fmt.Errorf("%w: resizing to %dx%d exceeds %d pixels per side",
				&lsb.CapacityError{Needed: needed, Available: available}, w, h, MaxSide)
		}

		p.logger().Debug("resizing carrier", "from", s, "to_w", w, "to_h", h, "needed", needed, "available", available)
		c = &ImageCarrier{img: Resize(c.img, w, h)}
	}
	return c, nil
}

func (p Planner) logger() *slog.Logger {
	if p.Logger == nil {
		return discardLogger
	}
	return p.Logger
}

var discardLogger = slog.New(slog.DiscardHandler)

// CheckCapacity reports lsb.ErrCapacityExceeded when c cannot hold needed units.
func CheckCapacity(c BitCarrier, needed int) error {
	if available := len(c.Units()); available < needed {
		return &lsb.CapacityError{Needed: needed, Available: available}
	}
	return nil
}
