package usecases

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedDashboard(t *testing.T, src *fakeSource) (*DashboardUsecase, *DashboardSession) {
	t.Helper()
	u := NewDashboardUsecase(src, DefaultPageSize, time.UTC)
	require.NoError(t, u.Start(context.Background(), "sid-1"))
	s, err := u.Session(context.Background(), "sid-1")
	require.NoError(t, err)
	return u, s
}

func TestDashboard_StartLoadsOnce(t *testing.T) {
	src := &fakeSource{subs: makeSubscribers(45)}
	_, s := startedDashboard(t, src)

	v := s.View()
	assert.Equal(t, "loaded", v.LoadState)
	assert.Equal(t, 45, v.Total)
	assert.Equal(t, 3, v.TotalPages)
	assert.Len(t, v.Rows, 20)

	s.SetFilter("visitor")
	s.Navigate(PageNext)
	assert.Equal(t, 1, src.calls, "filter and paging work on the fetched list")
}

func TestDashboard_FetchFailureRendersEmpty(t *testing.T) {
	src := &fakeSource{err: errors.New("timeout")}
	u := NewDashboardUsecase(src, DefaultPageSize, time.UTC)

	err := u.Start(context.Background(), "sid-1")
	require.Error(t, err)

	s, err := u.Session(context.Background(), "sid-1")
	require.NoError(t, err)
	v := s.View()
	assert.True(t, v.LoadFailed)
	assert.Equal(t, "failed", v.LoadState)
	assert.Empty(t, v.Rows)
	assert.Equal(t, 1, v.TotalPages)

	src.err = nil
	src.subs = makeSubscribers(3)
	v, err = u.Reload(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "loaded", v.LoadState)
	assert.Len(t, v.Rows, 3)
}

func TestDashboard_NavigateAndGoTo(t *testing.T) {
	_, s := startedDashboard(t, &fakeSource{subs: makeSubscribers(45)})

	v, err := s.Navigate(PageLast)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Page)
	assert.Len(t, v.Rows, 5)

	_, err = s.Navigate("sideways")
	assert.ErrorIs(t, err, ErrUnknownPageOp)

	assert.Equal(t, 1, s.GoTo(0).Page)
	assert.Equal(t, 3, s.GoTo(40).Page)
}

func TestDashboard_SelectionFlagsRows(t *testing.T) {
	_, s := startedDashboard(t, &fakeSource{subs: makeSubscribers(45)})
	first := s.View().Rows[0].ID

	v := s.Toggle(first)
	assert.True(t, v.Rows[0].Selected)
	assert.Equal(t, 1, v.SelectedCount)
	assert.False(t, v.PageFullySelected)

	v = s.ToggleAllOnPage()
	assert.True(t, v.PageFullySelected)
	assert.Equal(t, 20, v.SelectedCount)

	v, _ = s.Navigate(PageNext)
	assert.False(t, v.PageFullySelected)
	assert.Equal(t, 20, v.SelectedCount)

	v = s.ClearSelection()
	assert.Zero(t, v.SelectedCount)
}

func TestDashboard_BulkMailTargetsSelectedOnCurrentPage(t *testing.T) {
	_, s := startedDashboard(t, &fakeSource{subs: makeSubscribers(45)})

	_, _, err := s.BulkMail()
	assert.ErrorIs(t, err, ErrNothingSelected)

	v := s.View()
	s.Toggle(v.Rows[0].ID)
	s.Toggle(v.Rows[1].ID)

	link, n, err := s.BulkMail()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "mailto:?bcc="+v.Rows[0].Email+","+v.Rows[1].Email, link)

	s.Navigate(PageNext)
	_, _, err = s.BulkMail()
	assert.ErrorIs(t, err, ErrNothingSelected)
}

func TestDashboard_ExportCoversFilteredSet(t *testing.T) {
	_, s := startedDashboard(t, &fakeSource{subs: makeSubscribers(45)})
	s.SetFilter("visitor1")

	name, body := s.ExportCSV(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "waitlist-2026-10-18.csv", name)
	rows := strings.Count(string(body), "\n") - 1
	assert.Equal(t, s.View().FilteredCount, rows)

	list, n := s.EmailList()
	assert.Equal(t, s.View().FilteredCount, n)
	assert.True(t, strings.HasPrefix(list, "visitor19@example.com, visitor18@example.com"))
	assert.True(t, strings.HasSuffix(list, ", visitor1@example.com"))
}

func TestDashboard_EndedSessionIsGone(t *testing.T) {
	src := &fakeSource{subs: makeSubscribers(2)}
	u, s := startedDashboard(t, src)
	s.Toggle("s1")
	assert.True(t, u.Active("sid-1"))

	u.End("sid-1")
	assert.False(t, u.Active("sid-1"))
	_, err := u.Session(context.Background(), "sid-1")
	assert.ErrorIs(t, err, ErrNoDashboardSession)
	_, err = u.Reload(context.Background(), "sid-1")
	assert.ErrorIs(t, err, ErrNoDashboardSession)
	assert.Equal(t, 1, src.calls, "no reload for an ended session")

	_, err = u.Session(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoDashboardSession)
}

func TestDashboard_UnknownSessionIsRejected(t *testing.T) {
	src := &fakeSource{subs: makeSubscribers(2)}
	u := NewDashboardUsecase(src, DefaultPageSize, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := u.Session(context.Background(), "signed-before-restart")
			assert.ErrorIs(t, err, ErrNoDashboardSession)
		}()
	}
	wg.Wait()

	assert.False(t, u.Active("signed-before-restart"))
	assert.Zero(t, src.calls, "requests never create or load a session")
}

func TestDashboard_MissingSessionLogUsesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("sid", "sid-9").Logger()
	u := NewDashboardUsecase(&fakeSource{}, DefaultPageSize, time.UTC)

	_, err := u.Session(logger.WithContext(context.Background()), "sid-9")
	require.ErrorIs(t, err, ErrNoDashboardSession)
	assert.Equal(t, 1, strings.Count(buf.String(), `"sid"`), buf.String())
}

func TestDashboard_SweepIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u := NewDashboardUsecase(&fakeSource{}, DefaultPageSize, time.UTC)
	u.now = func() time.Time { return now }
	require.NoError(t, u.Start(context.Background(), "old"))

	now = now.Add(time.Hour)
	require.NoError(t, u.Start(context.Background(), "fresh"))

	assert.Equal(t, 1, u.SweepIdle(30*time.Minute))
	assert.False(t, u.Active("old"))
	_, err := u.Session(context.Background(), "old")
	assert.ErrorIs(t, err, ErrNoDashboardSession)
	u.mu.Lock()
	_, oldLeft := u.sessions["old"]
	_, freshLeft := u.sessions["fresh"]
	u.mu.Unlock()
	assert.False(t, oldLeft)
	assert.True(t, freshLeft)
}
