package usecases

import (
	"context"
	"strings"

	"waitlist_funnel/internal/entities"
	"waitlist_funnel/internal/interfaces"

	"github.com/rs/zerolog/log"
)

// DefaultPageSize is the number of subscribers per dashboard page.
const DefaultPageSize = 20

// LoadState tells a genuinely empty list apart from a failed fetch.
type LoadState int

const (
	LoadNotStarted LoadState = iota
	LoadLoading
	LoadLoaded
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadLoading:
		return "loading"
	case LoadLoaded:
		return "loaded"
	case LoadFailed:
		return "failed"
	default:
		return "not_loaded"
	}
}

// ListView derives the filtered, paginated view of the fetched waitlist.
// It is not safe for concurrent use; DashboardSession serializes access.
type ListView struct {
	subscribers []entities.Subscriber
	state       LoadState
	loadErr     error

	filter   string
	page     int
	pageSize int

	// cached filter result, invalidated on load and filter change
	filtered []entities.Subscriber
	dirty    bool
}

func NewListView(pageSize int) *ListView {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &ListView{page: 1, pageSize: pageSize, dirty: true}
}

// Load fetches the whole list once. A failed fetch leaves the view empty
// with state LoadFailed; the error is logged and returned for the caller's
// information only.
func (v *ListView) Load(ctx context.Context, src interfaces.SubscriberSource) error {
	v.state = LoadLoading
	subscribers, err := src.ListNewestFirst(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("load waitlist")
		v.subscribers = nil
		v.state = LoadFailed
		v.loadErr = err
	} else {
		v.subscribers = subscribers
		v.state = LoadLoaded
		v.loadErr = nil
	}
	v.dirty = true
	v.page = v.clamp(v.page)
	return err
}

func (v *ListView) State() LoadState { return v.state }
func (v *ListView) LoadErr() error   { return v.loadErr }
func (v *ListView) Filter() string   { return v.filter }
func (v *ListView) PageSize() int    { return v.pageSize }

// Total is the size of the unfiltered list.
func (v *ListView) Total() int { return len(v.subscribers) }

// SetFilter replaces the filter text and returns to page 1.
func (v *ListView) SetFilter(text string) {
	v.filter = text
	v.dirty = true
	v.page = 1
}

// Filtered returns the subscribers whose name or email contains the filter,
// case-insensitively, in store order.
func (v *ListView) Filtered() []entities.Subscriber {
	if !v.dirty {
		return v.filtered
	}
	v.filtered = filterSubscribers(v.subscribers, v.filter)
	v.dirty = false
	return v.filtered
}

func filterSubscribers(all []entities.Subscriber, filter string) []entities.Subscriber {
	if filter == "" {
		return all
	}
	needle := strings.ToLower(filter)
	out := make([]entities.Subscriber, 0, len(all))
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.DisplayName()), needle) ||
			strings.Contains(strings.ToLower(s.Email), needle) {
			out = append(out, s)
		}
	}
	return out
}

// FilteredCount is len(Filtered()).
func (v *ListView) FilteredCount() int { return len(v.Filtered()) }

// TotalPages is max(1, ceil(filtered / pageSize)).
func (v *ListView) TotalPages() int {
	n := v.FilteredCount()
	pages := (n + v.pageSize - 1) / v.pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Page returns the current 1-based page number.
func (v *ListView) Page() int {
	v.page = v.clamp(v.page)
	return v.page
}

// CurrentPage returns up to pageSize subscribers of the current page.
func (v *ListView) CurrentPage() []entities.Subscriber {
	filtered := v.Filtered()
	start := (v.Page() - 1) * v.pageSize
	if start >= len(filtered) {
		return nil
	}
	end := start + v.pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// CurrentPageIDs returns the ids on the current page, in order.
func (v *ListView) CurrentPageIDs() []string {
	page := v.CurrentPage()
	ids := make([]string, len(page))
	for i, s := range page {
		ids[i] = s.ID
	}
	return ids
}

func (v *ListView) First() int    { return v.GoTo(1) }
func (v *ListView) Previous() int { return v.GoTo(v.Page() - 1) }
func (v *ListView) Next() int     { return v.GoTo(v.Page() + 1) }
func (v *ListView) Last() int     { return v.GoTo(v.TotalPages()) }

// GoTo moves to page n, clamped to [1, TotalPages].
func (v *ListView) GoTo(n int) int {
	v.page = v.clamp(n)
	return v.page
}

func (v *ListView) clamp(n int) int {
	if n < 1 {
		return 1
	}
	if last := v.TotalPages(); n > last {
		return last
	}
	return n
}
