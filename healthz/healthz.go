// Package healthz serves the debug endpoints of a running render.
package healthz

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

type Handler struct {
}

func New() *Handler {
	return &Handler{}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("200 OK"))
}

// Progress counts finished rows.  It is safe for concurrent use.
type Progress struct {
	doneRows  int64
	totalRows int64
	resumed   int64
}

func NewProgress(totalRows int) *Progress {
	return &Progress{totalRows: int64(totalRows)}
}

// Set records the number of rows finished so far.
func (p *Progress) Set(doneRows int) {
	atomic.StoreInt64(&p.doneRows, int64(doneRows))
}

// AddResumed records rows restored from a checkpoint instead of rendered.
func (p *Progress) AddResumed(rows int) {
	atomic.AddInt64(&p.resumed, int64(rows))
}

func (p *Progress) Done() (doneRows, totalRows int) {
	return int(atomic.LoadInt64(&p.doneRows)), int(atomic.LoadInt64(&p.totalRows))
}

func (p *Progress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	done, total := p.Done()
	pct := 0
	if total > 0 {
		pct = 100 * done / total
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "rows: %d/%d %d%%\nresumed: %d\n", done, total, pct, atomic.LoadInt64(&p.resumed))
}

// NewServeMux wires /healthz, /readyz and /progressz.
func NewServeMux(p *Progress) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/healthz", New())
	mux.Handle("/readyz", New())
	mux.Handle("/progressz", p)
	return mux
}
