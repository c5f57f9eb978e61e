// internal/controller/state.go
package controller

import (
	"time"

	"churn-console/internal/churn/display"
)

const (
	StatusChecking = "Checking..."
	StatusOnline   = "System Online"
	StatusOffline  = "System Offline"

	ButtonIdle    = "Analyze Risk"
	ButtonLoading = "Analyzing..."

	// AlertMessage is the only message a user sees for a failed submission.
	AlertMessage = "An error occurred while processing your request. Please ensure the API is running."

	ScrollResult = "result"
	ScrollTop    = "top"
)

// Button is the submit control.
type Button struct {
	Disabled    bool   `json:"disabled"`
	Label       string `json:"label"`
	ShowSpinner bool   `json:"showSpinner"`
}

// PageState is everything one page load shows. It is stored between requests
// and recreated from scratch on every new page load.
type PageState struct {
	ID         string            `json:"id"`
	Online     bool              `json:"online"`
	Checking   bool              `json:"checking"`
	StatusText string            `json:"statusText"`
	Loading    bool              `json:"loading"`
	Button     Button            `json:"button"`
	Values     map[string]string `json:"values"`

	Result        *display.State `json:"result,omitempty"`
	ResultVisible bool           `json:"resultVisible"`
	// Latency survives predictions that come back without a latency header.
	Latency string `json:"latency"`

	// Alert and Scroll are shown once by View and then cleared.
	Alert     string `json:"alert,omitempty"`
	Scroll    string `json:"scroll,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newPageState(id string, now time.Time) *PageState {
	s := &PageState{
		ID:         id,
		StatusText: StatusChecking,
		Checking:   true,
		Values:     map[string]string{},
		Latency:    display.EmptyLatency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.setLoading(false)
	return s
}

func (s *PageState) setLoading(loading bool) {
	s.Loading = loading
	s.Button = Button{Disabled: loading, Label: ButtonIdle}
	if loading {
		s.Button.Label = ButtonLoading
		s.Button.ShowSpinner = true
	}
}

func (s *PageState) setOnline(online bool) {
	s.Online = online
	s.Checking = false
	s.StatusText = StatusOffline
	if online {
		s.StatusText = StatusOnline
	}
}

// Value returns the submitted text of a field, empty after a reset.
func (s *PageState) Value(name string) string {
	return s.Values[name]
}

func cloneValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
