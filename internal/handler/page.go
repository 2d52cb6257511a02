package handler

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/auth"
	"github.com/sakif/repo-explainer/internal/markdown"
	"github.com/sakif/repo-explainer/internal/model"
	"github.com/sakif/repo-explainer/internal/service"
)

const pageTitle = "Repo Explainer"

// PageHandler renders the server-side pages.
//
// TEMPLATES:
// base.html holds the layout and pulls in {{template "content" .}};
// index.html defines "content". Both are parsed once at startup.
type PageHandler struct {
	templates *template.Template
	explain   *service.ExplainService
	// history is nil when history listing is unavailable.
	history   *service.HistoryService
	providers []string
	logger    *zap.Logger
}

func NewPageHandler(
	templates fs.FS,
	explain *service.ExplainService,
	history *service.HistoryService,
	providers []string,
	logger *zap.Logger,
) (*PageHandler, error) {
	tmpl, err := template.ParseFS(templates, "base.html", "index.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		templates: tmpl,
		explain:   explain,
		history:   history,
		providers: providers,
		logger:    logger,
	}, nil
}

type sectionView struct {
	Heading string
	Tone    string
	Class   string
	Body    template.HTML
}

type pageData struct {
	Title     string
	Repo      string
	Error     string
	Metadata  *model.RepoMetadata
	Sections  []sectionView
	Raw       template.HTML
	History   []model.SearchHistoryEntry
	Identity  *auth.Identity
	Providers []string
}

// HandleHome serves GET /.
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	data := h.baseData(r)
	h.render(w, http.StatusOK, data)
}

// HandleExplain serves GET /explain?repo=<url>: the same pipeline as
// POST /api/explain, rendered as tinted sections.
func (h *PageHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	data := h.baseData(r)
	data.Repo = r.URL.Query().Get("repo")

	res, err := h.explain.Explain(r.Context(), data.Repo, ownerKey(r))
	if err != nil {
		data.Error = clientMessage(err)
		if data.Error == "" {
			h.logger.Error("explain page failed", zap.Error(err))
			data.Error = "Server error"
		}
		h.render(w, statusFor(err), data)
		return
	}

	data.Title = res.Ref.Owner + "/" + res.Ref.Repo + " · " + pageTitle
	data.Metadata = &res.Metadata
	data.Sections, data.Raw = h.sections(res.Explanation.Text)
	if res.Saved {
		data.History = h.recent(r.Context(), ownerKey(r))
	}
	h.render(w, http.StatusOK, data)
}

func (h *PageHandler) baseData(r *http.Request) *pageData {
	data := &pageData{Title: pageTitle, Providers: h.providers}
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		data.Identity = &id
		data.History = h.recent(r.Context(), id.Key())
	}
	return data
}

func (h *PageHandler) recent(ctx context.Context, owner string) []model.SearchHistoryEntry {
	if h.history == nil || owner == "" {
		return nil
	}
	entries, err := h.history.List(ctx, owner)
	if err != nil {
		h.logger.Warn("loading history for page", zap.Error(err))
		return nil
	}
	return entries
}

// sections splits the explanation at "## " headings. Text without any
// such heading is rendered whole.
func (h *PageHandler) sections(text string) ([]sectionView, template.HTML) {
	split := markdown.SplitSections(text)
	if len(split) == 0 {
		body, err := markdown.RenderHTML(text)
		if err != nil {
			h.logger.Warn("rendering explanation", zap.Error(err))
			return nil, template.HTML(template.HTMLEscapeString(text))
		}
		return nil, template.HTML(body)
	}

	views := make([]sectionView, 0, len(split))
	for _, sec := range split {
		body, err := markdown.RenderSection(sec)
		if err != nil {
			h.logger.Warn("rendering section", zap.String("heading", sec.Heading), zap.Error(err))
			body = template.HTMLEscapeString(sec.Content)
		}
		tone := markdown.ToneOf(sec.Heading)
		views = append(views, sectionView{
			Heading: sec.Heading,
			Tone:    tone.String(),
			Class:   tone.Class(),
			Body:    template.HTML(body),
		})
	}
	return views, ""
}

func (h *PageHandler) render(w http.ResponseWriter, status int, data *pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template", zap.Error(err))
	}
}

// clientMessage returns the client-safe message carried by err, if any.
func clientMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
