package s3client

import (
	"io"
	"sync"
)

// Progress is one progress notification for a single download.
type Progress struct {
	FilePath         string
	TransferredBytes int64
	TotalBytes       int64
	PercentDone      int
	IsCompleted      bool
}

// ProgressFunc receives progress for one download. Calls for the same
// download never overlap and never report fewer bytes than the previous call.
type ProgressFunc func(Progress)

// tracker turns byte counts coming from concurrent part writers into an
// ordered stream of progress events, one per whole-percent change.
type tracker struct {
	mu          sync.Mutex
	path        string
	total       int64
	transferred int64
	lastPercent int
	done        bool
	fn          ProgressFunc
}

func newTracker(path string, total int64, fn ProgressFunc) *tracker {
	return &tracker{path: path, total: total, lastPercent: -1, fn: fn}
}

func (t *tracker) percent() int {
	if t.total <= 0 {
		if t.done {
			return 100
		}
		return 0
	}
	p := int(t.transferred * 100 / t.total)
	if p > 100 {
		p = 100
	}
	return p
}

func (t *tracker) start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.emit()
}

func (t *tracker) add(n int64) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.transferred += n
	if t.percent() > t.lastPercent {
		t.emit()
	}
}

func (t *tracker) complete() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return
	}
	t.done = true
	if t.transferred < t.total {
		t.transferred = t.total
	}
	t.emit()
}

func (t *tracker) emit() {
	t.lastPercent = t.percent()
	if t.fn == nil {
		return
	}
	t.fn(Progress{
		FilePath:         t.path,
		TransferredBytes: t.transferred,
		TotalBytes:       t.total,
		PercentDone:      t.lastPercent,
		IsCompleted:      t.done,
	})
}

type progressWriterAt struct {
	w io.WriterAt
	t *tracker
}

func (p *progressWriterAt) WriteAt(b []byte, off int64) (int, error) {
	n, err := p.w.WriteAt(b, off)
	p.t.add(int64(n))
	return n, err
}

type progressReader struct {
	r io.Reader
	t *tracker
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.t.add(int64(n))
	return n, err
}
