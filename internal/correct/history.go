package correct

// history keeps the most recent corrected transcripts, oldest first, and
// evicts from the front once full. It is not goroutine-safe; the corrector
// serializes access.
type history struct {
	entries []string
	max     int
}

func newHistory(max int) *history {
	if max <= 0 {
		max = 10
	}
	return &history{max: max}
}

func (h *history) push(s string) {
	h.entries = append(h.entries, s)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

func (h *history) snapshot() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *history) len() int { return len(h.entries) }
