package transport

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/haukened/cd-security/internal/security/common/log"
	"github.com/haukened/cd-security/internal/security/domain"
	"github.com/haukened/cd-security/internal/security/services/guard"
	"github.com/haukened/cd-security/internal/security/services/updater"
)

const defaultDecisionLimit = 50

// API holds the HTTP handlers. Every dependency is required except Journal.
type API struct {
	registrations RegistrationHandler
	settings      SettingsStore
	updates       UpdateRunner
	registry      UpdateRegistry
	journal       DecisionJournal
	page          *settingsPage
	logger        log.Logger
}

// APIOptions wires an API.
type APIOptions struct {
	Registrations RegistrationHandler
	Settings      SettingsStore
	Updates       UpdateRunner
	Registry      UpdateRegistry
	Journal       DecisionJournal
	Logger        log.Logger
}

// NewAPI builds the handler set.
func NewAPI(opts APIOptions) (*API, error) {
	switch {
	case opts.Registrations == nil:
		return nil, errors.New("registration handler is required")
	case opts.Settings == nil:
		return nil, errors.New("settings store is required")
	case opts.Updates == nil:
		return nil, errors.New("update runner is required")
	case opts.Registry == nil:
		return nil, errors.New("update registry is required")
	}
	page, err := newSettingsPage()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	return &API{
		registrations: opts.Registrations,
		settings:      opts.Settings,
		updates:       opts.Updates,
		registry:      opts.Registry,
		journal:       opts.Journal,
		page:          page,
		logger:        opts.Logger,
	}, nil
}

type userRegisteredRequest struct {
	UserID uint64 `json:"user_id"`
}

type settingsPayload struct {
	AutoUpdate *bool `json:"auto_update"`
}

type updatesResponse struct {
	State      domain.UpdateState  `json:"state"`
	Offer      *domain.UpdateOffer `json:"offer,omitempty"`
	AutoUpdate bool                `json:"auto_update"`
}

type errorResponse struct {
	Error  string                 `json:"error"`
	Record *domain.DecisionRecord `json:"record,omitempty"`
}

// HandleUserRegistered is the host's user-registered hook.
func (a *API) HandleUserRegistered(w http.ResponseWriter, r *http.Request) {
	var req userRegisteredRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.UserID == 0 {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	rec, err := a.registrations.HandleRegistration(r.Context(), req.UserID)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, rec)
	case errors.Is(err, guard.ErrUserNotFound):
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "user not found"})
	case rec.ID != "":
		// evaluated, but the host refused the deletion
		writeJSON(w, r, http.StatusBadGateway, errorResponse{Error: "user deletion failed", Record: &rec})
	default:
		writeJSON(w, r, http.StatusBadGateway, errorResponse{Error: "user lookup failed"})
	}
}

// HandleSettingsPage renders the settings screen.
func (a *API) HandleSettingsPage(w http.ResponseWriter, r *http.Request) {
	enabled, err := a.settings.AutoUpdate()
	if err != nil {
		a.logger.Error(map[string]any{"error": err.Error()}, "Failed to read settings")
		http.Error(w, "failed to read settings", http.StatusInternalServerError)
		return
	}
	html, err := a.page.render(enabled, r.URL.Query().Get("saved") == "1")
	if err != nil {
		a.logger.Error(map[string]any{"error": err.Error()}, "Failed to render settings page")
		http.Error(w, "failed to render settings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// HandleSettingsSubmit saves the settings form. An unchecked box is absent
// from the form and saves as disabled.
func (a *API) HandleSettingsSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	enabled := formFlag(r.PostForm.Get(autoUpdateField))
	if err := a.settings.SetAutoUpdate(enabled); err != nil {
		a.logger.Error(map[string]any{"error": err.Error()}, "Failed to save settings")
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	a.logger.Info(map[string]any{"auto_update": enabled}, "Settings saved")
	http.Redirect(w, r, "/settings?saved=1", http.StatusSeeOther)
}

// formFlag mirrors an absint sanitizer: any non-zero integer is true.
func formFlag(v string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	return err == nil && n != 0
}

// HandleGetSettings returns the flag as JSON.
func (a *API) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	enabled, err := a.settings.AutoUpdate()
	if err != nil {
		a.logger.Error(map[string]any{"error": err.Error()}, "Failed to read settings")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "failed to read settings"})
		return
	}
	writeJSON(w, r, http.StatusOK, settingsPayload{AutoUpdate: &enabled})
}

// HandlePutSettings updates the flag from JSON.
func (a *API) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsPayload
	if err := render.DecodeJSON(r.Body, &body); err != nil || body.AutoUpdate == nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "auto_update is required"})
		return
	}
	if err := a.settings.SetAutoUpdate(*body.AutoUpdate); err != nil {
		a.logger.Error(map[string]any{"error": err.Error()}, "Failed to save settings")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "failed to save settings"})
		return
	}
	a.logger.Info(map[string]any{"auto_update": *body.AutoUpdate}, "Settings saved")
	writeJSON(w, r, http.StatusOK, body)
}

// HandleGetUpdates returns the update registry and whether our pending
// update may be applied unattended.
func (a *API) HandleGetUpdates(w http.ResponseWriter, r *http.Request) {
	a.writeUpdates(w, r, a.registry.Snapshot())
}

// HandleCheckUpdates runs an update check now.
func (a *API) HandleCheckUpdates(w http.ResponseWriter, r *http.Request) {
	a.writeUpdates(w, r, a.updates.Run(r.Context()))
}

func (a *API) writeUpdates(w http.ResponseWriter, r *http.Request, st domain.UpdateState) {
	enabled, err := a.settings.AutoUpdate()
	if err != nil {
		a.logger.Error(map[string]any{"error": err.Error()}, "Failed to read settings")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "failed to read settings"})
		return
	}
	slug := a.updates.Slug()
	resp := updatesResponse{
		State:      st,
		AutoUpdate: updater.AutoUpdate(slug, slug, false, enabled),
	}
	if o, ok := st.Response[slug]; ok {
		resp.Offer = &o
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// HandleAutoUpdateDecision answers the host's per-item auto-update filter:
// ?slug=<item>&current=<host default>.
func (a *API) HandleAutoUpdateDecision(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	current, _ := strconv.ParseBool(q.Get("current"))
	enabled, err := a.settings.AutoUpdate()
	if err != nil {
		a.logger.Error(map[string]any{"error": err.Error()}, "Failed to read settings")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "failed to read settings"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{
		"auto_update": updater.AutoUpdate(q.Get("slug"), a.updates.Slug(), current, enabled),
	})
}

// HandleRecentDecisions lists recent decision records, newest first.
func (a *API) HandleRecentDecisions(w http.ResponseWriter, r *http.Request) {
	limit := defaultDecisionLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	records := []domain.DecisionRecord{}
	if a.journal != nil {
		records = a.journal.Recent(limit)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"decisions": records,
		"total":     len(records),
	})
}

// HandleDecision returns one decision record by id.
func (a *API) HandleDecision(w http.ResponseWriter, r *http.Request) {
	if a.journal != nil {
		if rec, ok := a.journal.Get(chi.URLParam(r, "id")); ok {
			writeJSON(w, r, http.StatusOK, rec)
			return
		}
	}
	writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "decision not found"})
}

// HandleHealth reports liveness.
func (a *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}
