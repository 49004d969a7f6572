package usecases

import (
	"context"
	"sync"
	"time"

	"waitlist_funnel/internal/entities"
	"waitlist_funnel/internal/interfaces"

	"github.com/rs/zerolog/log"
)

// Page operations accepted by Navigate.
const (
	PageFirst    = "first"
	PagePrevious = "previous"
	PageNext     = "next"
	PageLast     = "last"
)

// DashboardRow is one subscriber on the current page.
type DashboardRow struct {
	entities.Subscriber
	Selected bool `json:"selected"`
}

// DashboardView is a snapshot of one operator's dashboard.
type DashboardView struct {
	LoadState         string         `json:"load_state"`
	LoadFailed        bool           `json:"load_failed"`
	Filter            string         `json:"filter"`
	Page              int            `json:"page"`
	TotalPages        int            `json:"total_pages"`
	PageSize          int            `json:"page_size"`
	Total             int            `json:"total"`
	FilteredCount     int            `json:"filtered_count"`
	Rows              []DashboardRow `json:"rows"`
	PageFullySelected bool           `json:"page_fully_selected"`
	SelectedCount     int            `json:"selected_count"`
}

// DashboardSession is the list, selection and export state of one operator
// login. All methods serialize on the session mutex.
type DashboardSession struct {
	mu        sync.Mutex
	view      *ListView
	selection *Selection
	exporter  *Exporter
	touched   time.Time
}

// DashboardUsecase owns the dashboard sessions keyed by the token's sid.
type DashboardUsecase struct {
	source   interfaces.SubscriberSource
	pageSize int
	exporter *Exporter
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*DashboardSession
}

func NewDashboardUsecase(source interfaces.SubscriberSource, pageSize int, loc *time.Location) *DashboardUsecase {
	return &DashboardUsecase{
		source:   source,
		pageSize: pageSize,
		exporter: NewExporter(loc),
		now:      time.Now,
		sessions: make(map[string]*DashboardSession),
	}
}

// Start creates the session for sid and performs the one-time load.
// The session exists even if the load fails.
func (u *DashboardUsecase) Start(ctx context.Context, sid string) error {
	s := &DashboardSession{
		view:      NewListView(u.pageSize),
		selection: NewSelection(),
		exporter:  u.exporter,
		touched:   u.now(),
	}
	u.mu.Lock()
	u.sessions[sid] = s
	u.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Load(ctx, u.source)
}

// End discards the session on logout.
func (u *DashboardUsecase) End(sid string) {
	u.mu.Lock()
	delete(u.sessions, sid)
	u.mu.Unlock()
}

// SweepIdle drops sessions untouched for longer than maxIdle and returns
// how many were removed.
func (u *DashboardUsecase) SweepIdle(maxIdle time.Duration) int {
	cutoff := u.now().Add(-maxIdle)
	u.mu.Lock()
	defer u.mu.Unlock()
	removed := 0
	for sid, s := range u.sessions {
		s.mu.Lock()
		idle := s.touched.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(u.sessions, sid)
			removed++
		}
	}
	return removed
}

// Session returns the live session for sid. Sessions exist only between
// Login and Logout (or an idle sweep) in this process, so a token that
// outlived either gets ErrNoDashboardSession.
func (u *DashboardUsecase) Session(ctx context.Context, sid string) (*DashboardSession, error) {
	u.mu.Lock()
	s, ok := u.sessions[sid]
	u.mu.Unlock()
	if !ok {
		log.Ctx(ctx).Debug().Msg("no dashboard session for token")
		return nil, ErrNoDashboardSession
	}
	s.mu.Lock()
	s.touched = u.now()
	s.mu.Unlock()
	return s, nil
}

// Active reports whether sid has a live session.
func (u *DashboardUsecase) Active(sid string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.sessions[sid]
	return ok
}

// Reload refetches the full list, keeping filter, page (re-clamped) and
// selection.
func (s *DashboardSession) Reload(ctx context.Context, src interfaces.SubscriberSource) DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.view.Load(ctx, src)
	return s.snapshot()
}

// Reload refetches the list of the session for sid.
func (u *DashboardUsecase) Reload(ctx context.Context, sid string) (DashboardView, error) {
	s, err := u.Session(ctx, sid)
	if err != nil {
		return DashboardView{}, err
	}
	return s.Reload(ctx, u.source), nil
}

func (s *DashboardSession) View() DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *DashboardSession) SetFilter(text string) DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetFilter(text)
	return s.snapshot()
}

// Navigate applies one of the PageFirst..PageLast operations.
func (s *DashboardSession) Navigate(op string) (DashboardView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch op {
	case PageFirst:
		s.view.First()
	case PagePrevious:
		s.view.Previous()
	case PageNext:
		s.view.Next()
	case PageLast:
		s.view.Last()
	default:
		return DashboardView{}, ErrUnknownPageOp
	}
	return s.snapshot(), nil
}

func (s *DashboardSession) GoTo(page int) DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.GoTo(page)
	return s.snapshot()
}

func (s *DashboardSession) Toggle(id string) DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Toggle(id)
	return s.snapshot()
}

func (s *DashboardSession) ToggleAllOnPage() DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ToggleAllOnPage(s.view.CurrentPageIDs())
	return s.snapshot()
}

func (s *DashboardSession) ClearSelection() DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
	return s.snapshot()
}

// ExportCSV renders the whole filtered set.
func (s *DashboardSession) ExportCSV(now time.Time) (filename string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exporter.Filename(now), s.exporter.ToCSV(s.view.Filtered())
}

// EmailList joins the emails of the whole filtered set.
func (s *DashboardSession) EmailList() (list string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.view.Filtered()
	return s.exporter.ToEmailList(filtered), len(filtered)
}

// BulkMail composes a bcc link for the selected subscribers on the current
// page. It returns ErrNothingSelected when there are none.
func (s *DashboardSession) BulkMail() (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var targets []entities.Subscriber
	for _, sub := range s.view.CurrentPage() {
		if s.selection.Has(sub.ID) {
			targets = append(targets, sub)
		}
	}
	link, ok := s.exporter.ComposeBulkMail(targets)
	if !ok {
		return "", 0, ErrNothingSelected
	}
	return link, len(targets), nil
}

func (s *DashboardSession) snapshot() DashboardView {
	page := s.view.CurrentPage()
	rows := make([]DashboardRow, len(page))
	for i, sub := range page {
		rows[i] = DashboardRow{Subscriber: sub, Selected: s.selection.Has(sub.ID)}
	}
	return DashboardView{
		LoadState:         s.view.State().String(),
		LoadFailed:        s.view.State() == LoadFailed,
		Filter:            s.view.Filter(),
		Page:              s.view.Page(),
		TotalPages:        s.view.TotalPages(),
		PageSize:          s.view.PageSize(),
		Total:             s.view.Total(),
		FilteredCount:     s.view.FilteredCount(),
		Rows:              rows,
		PageFullySelected: s.selection.IsPageFullySelected(s.view.CurrentPageIDs()),
		SelectedCount:     s.selection.Len(),
	}
}
