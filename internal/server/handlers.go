package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jkaninda/okapi"

	"github.com/alnah/go-tex2pdf"
	"github.com/alnah/go-tex2pdf/internal/landing"
)

// Response messages. Existing clients match on these strings.
const (
	msgEmptySource   = "No .tex content provided in the request body."
	msgSecurity      = "Security check failed."
	msgCompileFailed = "PDF compilation failed."
	msgInternal      = "An unexpected error occurred."
	msgBusy          = "All compile slots are busy, retry later."
	msgNotFound      = "Not found."
	msgReadBody      = "Could not read request body."
)

// outputFilename is the attachment name of every generated PDF.
const outputFilename = "output.pdf"

// ErrorBody is the JSON body of every non-PDF /compile response.
type ErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Logs      string `json:"logs,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status          string `json:"status"`
	PdflatexPresent bool   `json:"pdflatex_present"`
	Engine          string `json:"engine"`
	EnginePath      string `json:"engine_path,omitempty"`
	SlotsInUse      int    `json:"slots_in_use"`
	SlotsTotal      int    `json:"slots_total"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r.Context(), s.logger)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorBody{
				Error: fmt.Sprintf("Request body exceeds %d bytes.", tooLarge.Limit),
			})
			return
		}
		logger.Warn("reading request body failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: msgReadBody})
		return
	}

	release, ok := s.acquireSlot(r)
	if !ok {
		logger.Warn("no compile slot available",
			slog.Int("slots", s.slots.Size()),
			slog.Duration("queue_timeout", s.cfg.QueueTimeout),
		)
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, ErrorBody{Error: msgBusy})
		return
	}
	out := s.compiler.Compile(r.Context(), string(body))
	release()

	s.metrics.ObserveOutcome(out)
	logger.Info("compile finished",
		slog.String("kind", out.Kind.String()),
		slog.Int("source_bytes", len(body)),
		slog.Duration("duration", out.Duration),
	)

	s.writeOutcome(w, r, out)
}

// acquireSlot waits up to QueueTimeout for a compile slot.
func (s *Server) acquireSlot(r *http.Request) (release func(), ok bool) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.QueueTimeout)
	defer cancel()

	if err := s.slots.Acquire(ctx); err != nil {
		s.metrics.SlotUnavailable()
		return nil, false
	}
	s.metrics.SlotAcquired()
	return func() {
		s.slots.Release()
		s.metrics.SlotReleased()
	}, true
}

func (s *Server) writeOutcome(w http.ResponseWriter, r *http.Request, out tex2pdf.Outcome) {
	switch out.Kind {
	case tex2pdf.KindSuccess:
		h := w.Header()
		h.Set("Content-Type", "application/pdf")
		h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, outputFilename))
		h.Set("Content-Length", strconv.Itoa(len(out.PDF)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out.PDF)

	case tex2pdf.KindInvalidInput:
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: msgEmptySource})

	case tex2pdf.KindSecurityRejected:
		writeJSON(w, http.StatusForbidden, ErrorBody{
			Error:   msgSecurity,
			Message: fmt.Sprintf("Disallowed command '%s' found in input.", out.Rule),
		})

	case tex2pdf.KindCompileFailed:
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: msgCompileFailed, Logs: out.Log})

	case tex2pdf.KindTimedOut:
		writeJSON(w, http.StatusRequestTimeout, ErrorBody{
			Error: fmt.Sprintf("Compilation timed out after %s.", describeLimit(out.Limit)),
		})

	default:
		requestLogger(r.Context(), s.logger).Error("compile failed internally",
			slog.String("error", out.Message),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorBody{
			Error:     msgInternal,
			RequestID: RequestID(r.Context()),
		})
	}
}

// describeLimit renders whole-second limits as words ("30 seconds") and
// anything else as a Go duration.
func describeLimit(d time.Duration) string {
	if d >= time.Second && d%time.Second == 0 {
		n := int64(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return strconv.FormatInt(n, 10) + " seconds"
	}
	return d.String()
}

func (s *Server) health() *HealthResponse {
	h := s.compiler.HealthProbe()
	return &HealthResponse{
		Status:          "ok",
		PdflatexPresent: h.EnginePresent,
		Engine:          h.Engine,
		EnginePath:      h.EnginePath,
		SlotsInUse:      s.slots.InUse(),
		SlotsTotal:      s.slots.Size(),
	}
}

func (s *Server) handleHealth(c *okapi.Context) error {
	return c.OK(s.health())
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, ErrorBody{Error: msgNotFound})
		return
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	page, err := s.landing.Render(r.Context(), landing.Info{
		Host:            r.Host,
		Scheme:          scheme,
		Timeout:         s.compiler.Timeout(),
		MaxRequestBytes: s.cfg.MaxRequestBytes,
		Denylist:        s.compiler.Denylist(),
		Docs:            s.cfg.Docs,
	})
	if err != nil {
		requestLogger(r.Context(), s.logger).Error("rendering usage page failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: msgInternal, RequestID: RequestID(r.Context())})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
