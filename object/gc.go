package object

import (
	"log/slog"
	"time"
)

// CollectStats describes one collection cycle.
type CollectStats struct {
	Kept     int
	Freed    int
	Duration time.Duration
}

// Collect runs one mark-and-sweep cycle with root as the only root:
// everything reachable from it survives, every other registered value is
// released exactly once and dropped from the registry.
//
// Collection never happens implicitly. Call it between evaluations, when
// no call is in progress, since the environments of active calls are not
// roots.
func (h *Heap) Collect(root *Environment) CollectStats {
	start := time.Now()

	marked := h.mark(root)

	kept := h.objects[:0]
	freed := 0
	for _, obj := range h.objects {
		if obj.gcHeader().marked {
			kept = append(kept, obj)
			continue
		}
		h.free(obj)
		freed++
	}
	for i := len(kept); i < len(h.objects); i++ {
		h.objects[i] = nil
	}
	h.objects = kept

	// values reachable from root but never registered carry a mark too
	for _, hd := range marked {
		hd.marked = false
	}

	h.cycles++
	h.freed += uint64(freed)

	stats := CollectStats{Kept: len(kept), Freed: freed, Duration: time.Since(start)}
	h.Logger.Debug("gc cycle",
		slog.Int("cycle", h.cycles),
		slog.Int("kept", stats.Kept),
		slog.Int("freed", stats.Freed),
		slog.Duration("duration", stats.Duration))

	return stats
}

// mark sets the mark bit on everything reachable from root and returns
// the headers it marked. It uses an explicit work list: closures make the
// graph cyclic and arrays can nest arbitrarily deep.
func (h *Heap) mark(root *Environment) []*header {
	var (
		marked []*header
		work   []collectable
	)

	push := func(obj Object) {
		if c, ok := obj.(collectable); ok {
			work = append(work, c)
		}
	}
	pushEnv := func(env *Environment) {
		if env != nil {
			work = append(work, env)
		}
	}

	pushEnv(root)

	for len(work) > 0 {
		c := work[len(work)-1]
		work = work[:len(work)-1]

		hd := c.gcHeader()
		if hd.marked {
			continue
		}
		hd.marked = true
		marked = append(marked, hd)

		switch c := c.(type) {
		case *Environment:
			c.each(func(_ string, val Object) { push(val) })
			pushEnv(c.outer)
		case *Array:
			for _, el := range c.Elements {
				push(el)
			}
		case *Hash:
			for _, pair := range c.Pairs() {
				push(pair.Key)
				push(pair.Value)
			}
		case *Function:
			pushEnv(c.Env)
		case *ReturnValue:
			push(c.Value)
		}
	}

	return marked
}

func (h *Heap) free(c collectable) {
	hd := c.gcHeader()
	if hd.freed {
		panic("object: value freed twice")
	}
	hd.freed = true
	hd.tracked = false
	c.release()
}
