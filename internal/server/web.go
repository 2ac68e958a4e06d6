package server

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iavc/agenda-extractor/internal/access"
	"github.com/iavc/agenda-extractor/internal/agenda"
	"github.com/iavc/agenda-extractor/internal/calendar"
	"github.com/iavc/agenda-extractor/internal/export"
	"github.com/iavc/agenda-extractor/internal/logging"
)

// MessageAccessDenied is shown when the access gate rejects a request.
const MessageAccessDenied = "Access denied."

const (
	formDateLayout  = "2006-01-02"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Extractor is the part of agenda.Service the web form uses.
type Extractor interface {
	Extract(ctx context.Context, r calendar.DateRange) (*agenda.Result, error)
	Export(ctx context.Context, w io.Writer, format string, res *agenda.Result) error
	ExportOptions() export.Options
}

// Handler serves the agenda form.
type Handler struct {
	extractor Extractor
	gate      access.Authorizer
	downloads *DownloadStore
	location  *time.Location
	logger    *slog.Logger
	now       func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger. Defaults to slog.Default().
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// WithLocation sets the zone used for the default form dates.
func WithLocation(loc *time.Location) HandlerOption {
	return func(h *Handler) { h.location = loc }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates the form handler. A nil gate allows every request.
func NewHandler(extractor Extractor, gate access.Authorizer, downloads *DownloadStore, opts ...HandlerOption) *Handler {
	if gate == nil {
		gate = access.Open{}
	}
	if downloads == nil {
		downloads = NewDownloadStore(DefaultDownloadTTL)
	}
	h := &Handler{
		extractor: extractor,
		gate:      gate,
		downloads: downloads,
		location:  time.Local,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// pageData feeds templates/index.html.
type pageData struct {
	Start          string
	End            string
	SecretRequired bool

	Success string
	Warning string
	Error   string

	Columns      []string
	Rows         []export.Row
	DownloadID   string
	DownloadName string
}

func (h *Handler) newPage(start, end string) pageData {
	if start == "" || end == "" {
		today := h.now().In(h.location).Format(formDateLayout)
		if start == "" {
			start = today
		}
		if end == "" {
			end = today
		}
	}
	return pageData{
		Start:          start,
		End:            end,
		SecretRequired: h.gate.Required(),
		Columns:        export.Columns,
	}
}

// Routes mounts the form routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/events", h.handleEvents)
	r.Get("/download/{id}", h.handleDownload)
}

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	h.render(w, http.StatusOK, h.newPage("", ""))
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		page := h.newPage("", "")
		page.Error = agenda.MessageFailure
		h.render(w, http.StatusBadRequest, page)
		return
	}

	start, end := r.PostFormValue("start"), r.PostFormValue("end")
	page := h.newPage(start, end)

	rng, err := calendar.ParseDateRange(start, end)
	if err != nil {
		page.Error = agenda.UserMessage(err)
		h.render(w, http.StatusBadRequest, page)
		return
	}

	if !h.gate.Allow(ctx, r.PostFormValue("secret")) {
		h.logger.Warn("access denied", logging.Operation("web.events"), slog.String("remote", r.RemoteAddr))
		page.Error = MessageAccessDenied
		h.render(w, http.StatusForbidden, page)
		return
	}

	res, err := h.extractor.Extract(ctx, rng)
	if err != nil {
		h.logger.Error("extraction failed",
			logging.Operation("web.events"),
			logging.Range(start, end),
			slog.String("kind", agenda.Kind(err)),
			logging.Err(err))
		page.Error = agenda.UserMessage(err)
		h.render(w, statusFor(err), page)
		return
	}

	if res.Empty() {
		page.Warning = res.Message()
		h.render(w, http.StatusOK, page)
		return
	}

	opts := h.extractor.ExportOptions()
	page.Rows = make([]export.Row, len(res.Records))
	for i, rec := range res.Records {
		page.Rows[i] = export.RowFor(rec, opts)
	}
	page.Success = res.Message()

	var buf bytes.Buffer
	if err := h.extractor.Export(ctx, &buf, export.FormatXLSX, res); err != nil {
		page.Success = ""
		page.Error = agenda.MessageFailure
		h.render(w, http.StatusInternalServerError, page)
		return
	}
	page.DownloadName = export.Filename(rng, export.FormatXLSX)
	page.DownloadID = h.downloads.Put(page.DownloadName, xlsxContentType, buf.Bytes())

	h.render(w, http.StatusOK, page)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	d, ok := h.downloads.Take(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "download expired or not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+d.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Data)
}

func (h *Handler) render(w http.ResponseWriter, status int, page pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		h.logger.Error("failed to render page", logging.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// statusFor maps extraction failures to HTTP status codes.
func statusFor(err error) int {
	switch agenda.Kind(err) {
	case agenda.KindRange:
		return http.StatusBadRequest
	case agenda.KindAuth, agenda.KindFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
