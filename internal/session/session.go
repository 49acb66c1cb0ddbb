// Package session owns the application state for one signed-in client:
// the active view, the last-delivered snapshot of each collection, and
// the mutating actions users can trigger. Every action validates first,
// issues at most one store write, and surfaces exactly one notification.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"okrboard/internal/audit"
	"okrboard/internal/auth"
	"okrboard/internal/lifecycle"
	"okrboard/internal/model"
	"okrboard/internal/notify"
	"okrboard/internal/progress"
	"okrboard/internal/store"
)

// View identifies the active screen.
type View string

const (
	ViewHome        View = "home"
	ViewSetup       View = "setup"
	ViewOrgOkrs     View = "org_okrs"
	ViewTeamOkrs    View = "team_okrs"
	ViewDashboard   View = "dashboard"
	ViewInitiatives View = "initiatives"
	ViewClosure     View = "closure"
)

var (
	// ErrSignedOut is returned for actions attempted without a session.
	ErrSignedOut = errors.New("sign in required")

	// ErrOkrNotFound is returned when an action references a team OKR
	// absent from the last-delivered snapshot.
	ErrOkrNotFound = errors.New("okr not found")
)

// Options wires a controller to its collaborators.
type Options struct {
	Store         store.Store
	Auth          *auth.Service
	Audit         *audit.Logger
	Notifications *notify.Center
	AppID         string
	DefaultTeam   string
	Now           func() time.Time
}

// Controller orchestrates views, subscriptions, and mutations. All
// reads come from the last-delivered snapshots; nothing is refetched
// manually.
type Controller struct {
	store store.Store
	auth  *auth.Service
	audit *audit.Logger
	notes *notify.Center
	paths store.Paths
	team  string
	now   func() time.Time

	mu          sync.Mutex
	view        View
	user        *auth.User
	orgOkrs     []model.OrgObjective
	teamOkrs    []model.TeamOkr
	initiatives []model.Initiative
	setup       model.SetupConfig
	cancels     []func()
}

// New builds a controller. Store, auth service, and app id are required.
func New(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if opts.AppID == "" {
		return nil, fmt.Errorf("app id is required")
	}
	if opts.Notifications == nil {
		opts.Notifications = &notify.Center{}
	}
	if opts.DefaultTeam == "" {
		opts.DefaultTeam = "General"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		store: opts.Store,
		auth:  opts.Auth,
		audit: opts.Audit,
		notes: opts.Notifications,
		paths: store.Paths{AppID: opts.AppID},
		team:  opts.DefaultTeam,
		now:   opts.Now,
		view:  ViewHome,
	}, nil
}

// Start opens the auth listener and the live subscriptions. Each
// collection is rendered independently, so cross-collection delivery
// order does not matter.
func (c *Controller) Start() error {
	unsubAuth := c.auth.OnAuthStateChanged(func(u *auth.User) {
		c.mu.Lock()
		c.user = u
		c.mu.Unlock()
	})
	c.addCancel(unsubAuth)

	cancel, err := c.store.Subscribe(c.paths.Okrs(), c.onTeamOkrs)
	if err != nil {
		c.Stop()
		return fmt.Errorf("subscribe okrs: %w", err)
	}
	c.addCancel(cancel)

	cancel, err = c.store.Subscribe(c.paths.Initiatives(), c.onInitiatives)
	if err != nil {
		c.Stop()
		return fmt.Errorf("subscribe initiatives: %w", err)
	}
	c.addCancel(cancel)

	cancel, err = c.store.SubscribeDoc(c.paths.OrgContextDoc(), c.onOrgContext)
	if err != nil {
		c.Stop()
		return fmt.Errorf("subscribe org context: %w", err)
	}
	c.addCancel(cancel)

	cancel, err = c.store.SubscribeDoc(c.paths.SetupDoc(), c.onSetup)
	if err != nil {
		c.Stop()
		return fmt.Errorf("subscribe setup: %w", err)
	}
	c.addCancel(cancel)

	return nil
}

// Stop cancels all subscriptions. No further snapshots are delivered.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancels := c.cancels
	c.cancels = nil
	c.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

func (c *Controller) addCancel(cancel func()) {
	c.mu.Lock()
	c.cancels = append(c.cancels, cancel)
	c.mu.Unlock()
}

// Snapshot handlers replace the relevant slice of view state wholesale.
// Undecodable documents are skipped; the rest of the snapshot still
// renders.

func (c *Controller) onTeamOkrs(docs []store.Document) {
	okrs := make([]model.TeamOkr, 0, len(docs))
	for _, doc := range docs {
		var okr model.TeamOkr
		if err := doc.Decode(&okr); err != nil {
			continue
		}
		okr.ID = doc.ID
		okrs = append(okrs, okr)
	}
	c.mu.Lock()
	c.teamOkrs = okrs
	c.mu.Unlock()
}

func (c *Controller) onInitiatives(docs []store.Document) {
	items := make([]model.Initiative, 0, len(docs))
	for _, doc := range docs {
		var ini model.Initiative
		if err := doc.Decode(&ini); err != nil {
			continue
		}
		ini.ID = doc.ID
		items = append(items, ini)
	}
	c.mu.Lock()
	c.initiatives = items
	c.mu.Unlock()
}

func (c *Controller) onOrgContext(doc *store.Document) {
	var ctx model.OrgContext
	if doc != nil {
		if err := doc.Decode(&ctx); err != nil {
			return
		}
	}
	c.mu.Lock()
	c.orgOkrs = ctx.Okrs
	c.mu.Unlock()
}

func (c *Controller) onSetup(doc *store.Document) {
	var cfg model.SetupConfig
	if doc != nil {
		if err := doc.Decode(&cfg); err != nil {
			return
		}
	}
	c.mu.Lock()
	c.setup = cfg
	c.mu.Unlock()
}

// View returns the active view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SetView switches the active screen.
func (c *Controller) SetView(v View) {
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
}

// User returns the signed-in user, or nil.
func (c *Controller) User() *auth.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// OrgObjectives returns the last-delivered organizational objectives.
func (c *Controller) OrgObjectives() []model.OrgObjective {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.OrgObjective, len(c.orgOkrs))
	copy(out, c.orgOkrs)
	return out
}

// TeamOkrs returns the last-delivered team OKRs.
func (c *Controller) TeamOkrs() []model.TeamOkr {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.TeamOkr, len(c.teamOkrs))
	copy(out, c.teamOkrs)
	return out
}

// Initiatives returns the last-delivered initiatives.
func (c *Controller) Initiatives() []model.Initiative {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Initiative, len(c.initiatives))
	copy(out, c.initiatives)
	return out
}

// Setup returns the last-delivered cycle configuration.
func (c *Controller) Setup() model.SetupConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setup
}

// ResolveInitiativeOkr resolves an initiative's linked OKR. The second
// return is false for dangling references left by a deleted OKR.
func (c *Controller) ResolveInitiativeOkr(ini model.Initiative) (model.TeamOkr, bool) {
	return c.findOkr(ini.LinkedOkrID)
}

func (c *Controller) findOkr(id string) (model.TeamOkr, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, okr := range c.teamOkrs {
		if okr.ID == id {
			return okr, true
		}
	}
	return model.TeamOkr{}, false
}

func (c *Controller) requireUser() (auth.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return auth.User{}, ErrSignedOut
	}
	return *c.user, nil
}

func authorName(u auth.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return "Guest"
}

// fail surfaces an error notification and returns the error unchanged.
// Failed actions never mutate anything; the view keeps its last-known
// snapshot.
func (c *Controller) fail(message string, err error) error {
	c.notes.Error(fmt.Sprintf("%s: %v", message, err))
	return err
}

func (c *Controller) logEvent(actor, eventType string, payload any) {
	if c.audit == nil {
		return
	}
	// Audit is best-effort; a failed audit write never fails the action.
	_ = c.audit.LogEvent(actor, eventType, payload)
}

// SaveOrgObjectives validates and replaces the organizational-context
// singleton wholesale. The audit event carries a diff against the
// previously delivered snapshot.
func (c *Controller) SaveOrgObjectives(okrs []model.OrgObjective) error {
	user, err := c.requireUser()
	if err != nil {
		return c.fail("could not save organizational OKRs", err)
	}
	if err := model.ValidateOrgObjectives(okrs); err != nil {
		return c.fail("could not save organizational OKRs", err)
	}

	previous := c.OrgObjectives()
	if err := c.store.SetDoc(c.paths.OrgContextDoc(), model.OrgContext{Okrs: okrs}, false); err != nil {
		return c.fail("could not save organizational OKRs", err)
	}

	diff, diffErr := audit.SingletonDiff(store.OrgContextKey, previous, okrs)
	if diffErr != nil {
		diff = ""
	}
	c.logEvent(user.ID, "org_okrs_saved", map[string]any{
		"count": len(okrs),
		"diff":  diff,
	})
	c.notes.Success("Organizational OKRs saved.")
	return nil
}

// SaveSetup merges the cycle configuration into its singleton document.
func (c *Controller) SaveSetup(cfg model.SetupConfig) error {
	user, err := c.requireUser()
	if err != nil {
		return c.fail("could not save cycle setup", err)
	}
	if err := c.store.SetDoc(c.paths.SetupDoc(), cfg, true); err != nil {
		return c.fail("could not save cycle setup", err)
	}
	c.logEvent(user.ID, "setup_saved", cfg)
	c.notes.Success("Cycle setup saved.")
	return nil
}

// CreateTeamOkr validates a draft, stamps its initial lifecycle state,
// and creates it. On success the dashboard becomes the active view.
func (c *Controller) CreateTeamOkr(draft model.TeamOkr) (string, error) {
	user, err := c.requireUser()
	if err != nil {
		return "", c.fail("could not create team OKR", err)
	}
	if err := model.ValidateTeamOkr(draft); err != nil {
		return "", c.fail("could not create team OKR", err)
	}

	if draft.Team == "" {
		draft.Team = c.team
	}
	okr := lifecycle.NewTeamOkr(draft, user.ID, authorName(user), c.now().UTC().Format(time.RFC3339))

	id, err := c.store.Create(c.paths.Okrs(), okr)
	if err != nil {
		return "", c.fail("could not create team OKR", err)
	}

	c.logEvent(user.ID, "okr_created", map[string]string{"id": id, "objective": okr.Objective})
	c.notes.Success(notify.FormatOkrCreated(okr.Objective))
	c.SetView(ViewDashboard)
	return id, nil
}

// RecordProgress appends a progress check-in to one key result of an
// owned, active OKR and writes the updated key-result list.
func (c *Controller) RecordProgress(okrID string, krIndex, value int, comment string) error {
	user, err := c.requireUser()
	if err != nil {
		return c.fail("could not record progress", err)
	}
	okr, ok := c.findOkr(okrID)
	if !ok {
		return c.fail("could not record progress", fmt.Errorf("%w: %s", ErrOkrNotFound, okrID))
	}
	if err := lifecycle.AssertOwner(user.ID, okr); err != nil {
		return c.fail("could not record progress", err)
	}
	if okr.Status == model.StatusClosed {
		return c.fail("could not record progress", fmt.Errorf("okr %s: %w", okrID, lifecycle.ErrAlreadyClosed))
	}

	updated, err := progress.Record(okr.KeyResults, krIndex, value, comment, authorName(user), c.now())
	if err != nil {
		return c.fail("could not record progress", err)
	}

	path := store.DocPath(c.paths.Okrs(), okrID)
	if err := c.store.Update(path, map[string]any{"keyResults": updated}); err != nil {
		return c.fail("could not record progress", err)
	}

	c.logEvent(user.ID, "progress_recorded", map[string]any{
		"id": okrID, "keyResult": krIndex, "value": value,
	})
	c.notes.Success(notify.FormatProgressRecorded(updated[krIndex].Name, value))
	return nil
}

// SetHealth changes the health status of an owned, active OKR.
func (c *Controller) SetHealth(okrID string, health model.Health) error {
	user, err := c.requireUser()
	if err != nil {
		return c.fail("could not update health status", err)
	}
	okr, ok := c.findOkr(okrID)
	if !ok {
		return c.fail("could not update health status", fmt.Errorf("%w: %s", ErrOkrNotFound, okrID))
	}

	updated, err := lifecycle.SetHealth(okr, health, user.ID)
	if err != nil {
		return c.fail("could not update health status", err)
	}

	path := store.DocPath(c.paths.Okrs(), okrID)
	if err := c.store.Update(path, map[string]any{"healthStatus": updated.HealthStatus}); err != nil {
		return c.fail("could not update health status", err)
	}

	c.logEvent(user.ID, "health_changed", map[string]string{"id": okrID, "healthStatus": string(health)})
	c.notes.Success(notify.FormatHealthChanged(okr.Objective, health))
	return nil
}

// CloseOkr transitions an owned, active OKR to closed with its
// retrospective attached. Closure is terminal.
func (c *Controller) CloseOkr(okrID string, retro model.Retrospective) error {
	user, err := c.requireUser()
	if err != nil {
		return c.fail("could not close OKR", err)
	}
	okr, ok := c.findOkr(okrID)
	if !ok {
		return c.fail("could not close OKR", fmt.Errorf("%w: %s", ErrOkrNotFound, okrID))
	}

	closed, err := lifecycle.Close(okr, retro, user.ID)
	if err != nil {
		return c.fail("could not close OKR", err)
	}

	path := store.DocPath(c.paths.Okrs(), okrID)
	if err := c.store.Update(path, map[string]any{
		"status":        closed.Status,
		"retrospective": closed.Retrospective,
	}); err != nil {
		return c.fail("could not close OKR", err)
	}

	c.logEvent(user.ID, "okr_closed", map[string]string{"id": okrID})
	c.notes.Success(notify.FormatOkrClosed(okr.Objective))
	return nil
}

// DeleteOkr removes an owned OKR entirely. Initiatives keep their
// now-dangling references; callers resolve them as "not found".
func (c *Controller) DeleteOkr(okrID string) error {
	user, err := c.requireUser()
	if err != nil {
		return c.fail("could not delete OKR", err)
	}
	okr, ok := c.findOkr(okrID)
	if !ok {
		return c.fail("could not delete OKR", fmt.Errorf("%w: %s", ErrOkrNotFound, okrID))
	}
	if err := lifecycle.AssertOwner(user.ID, okr); err != nil {
		return c.fail("could not delete OKR", err)
	}

	path := store.DocPath(c.paths.Okrs(), okrID)
	if err := c.store.Delete(path); err != nil {
		return c.fail("could not delete OKR", err)
	}

	c.logEvent(user.ID, "okr_deleted", map[string]string{"id": okrID, "objective": okr.Objective})
	c.notes.Success("Team OKR deleted.")
	return nil
}

// SaveInitiative creates or updates an initiative linked to a team OKR.
func (c *Controller) SaveInitiative(draft model.Initiative) (string, error) {
	user, err := c.requireUser()
	if err != nil {
		return "", c.fail("could not save initiative", err)
	}
	if draft.Status == "" {
		draft.Status = model.InitiativePending
	}
	if err := model.ValidateInitiative(draft); err != nil {
		return "", c.fail("could not save initiative", err)
	}
	if _, err := model.ParseInitiativeStatus(string(draft.Status)); err != nil {
		return "", c.fail("could not save initiative", err)
	}

	if draft.ID != "" {
		path := store.DocPath(c.paths.Initiatives(), draft.ID)
		if err := c.store.Update(path, draft); err != nil {
			return "", c.fail("could not save initiative", err)
		}
		c.logEvent(user.ID, "initiative_updated", map[string]string{"id": draft.ID})
		c.notes.Success("Initiative updated.")
		return draft.ID, nil
	}

	id, err := c.store.Create(c.paths.Initiatives(), draft)
	if err != nil {
		return "", c.fail("could not save initiative", err)
	}
	c.logEvent(user.ID, "initiative_created", map[string]string{"id": id, "name": draft.Name})
	c.notes.Success("Initiative created.")
	return id, nil
}

// ReportProblem appends an entry to the feedback log, tagged with the
// active view and the reporting user.
func (c *Controller) ReportProblem(description string) error {
	user, err := c.requireUser()
	if err != nil {
		return c.fail("could not send report", err)
	}
	if description == "" {
		return c.fail("could not send report", model.ValidationError{
			Field: "description", Message: "description is required",
		})
	}

	report := model.ProblemReport{
		Description: description,
		View:        string(c.View()),
		UserID:      user.ID,
		UserEmail:   user.Email,
		UserName:    user.DisplayName,
		Timestamp:   c.now().UTC().Format(time.RFC3339),
		AppID:       c.paths.AppID,
	}
	if _, err := c.store.Create(c.paths.ProblemReports(), report); err != nil {
		return c.fail("could not send report", err)
	}

	c.notes.Success("Report sent. Thanks for the feedback!")
	return nil
}
