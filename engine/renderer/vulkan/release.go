package vulkan

// releaseQueue holds destructors of resources that submitted frames may still
// read. Each entry is stamped with the number of the frame being recorded (or
// about to be) when it was pushed.
type releaseQueue struct {
	pending []pendingRelease
}

type pendingRelease struct {
	frame   uint64
	release func()
}

func (q *releaseQueue) push(frame uint64, release func()) {
	q.pending = append(q.pending, pendingRelease{frame: frame, release: release})
}

// collect runs, in push order, every entry stamped with a frame at or before
// completed.
func (q *releaseQueue) collect(completed uint64) {
	if len(q.pending) == 0 {
		return
	}
	due := q.pending
	q.pending = nil
	for _, p := range due {
		if p.frame <= completed {
			p.release()
		} else {
			q.pending = append(q.pending, p)
		}
	}
}

// flush runs everything. The device must be idle.
func (q *releaseQueue) flush() {
	due := q.pending
	q.pending = nil
	for _, p := range due {
		p.release()
	}
}

func (q *releaseQueue) len() int {
	return len(q.pending)
}
