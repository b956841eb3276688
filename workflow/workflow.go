// Package workflow tracks the three-step session flow: classify images,
// scrape recipes for the labels, then show a recipe. Each step requires the
// previous one to have succeeded.
package workflow

import (
	"github.com/use-agent/producerecipe/models"
)

// Action is a user step.
type Action int

const (
	ActionClassify Action = iota + 1
	ActionScrape
	ActionShow
)

func (a Action) String() string {
	switch a {
	case ActionClassify:
		return "classify"
	case ActionScrape:
		return "scrape"
	case ActionShow:
		return "show"
	}
	return "unknown"
}

// Warnings shown when a step is invoked out of order.
const (
	WarnClassifyFirst = "Please classify image(s) first!"
	WarnScrapeFirst   = "Please scrape image(s) first!"
)

// State is the per-session progress. The zero value is a fresh session.
type State struct {
	Classified bool `json:"classified"`
	Scraped    bool `json:"scraped"`
	Shown      bool `json:"shown"`
}

// Apply checks that action may run now and marks it as started. It returns
// a WORKFLOW_ORDER error carrying the user-facing warning when a
// prerequisite step has not completed. Re-running an earlier step
// invalidates the later ones.
func (s *State) Apply(action Action) error {
	switch action {
	case ActionClassify:
		s.Classified = true
		s.Scraped = false
		s.Shown = false
	case ActionScrape:
		if !s.Classified {
			return orderError(WarnClassifyFirst)
		}
		s.Scraped = true
		s.Shown = false
	case ActionShow:
		if !s.Classified {
			return orderError(WarnClassifyFirst)
		}
		if !s.Scraped {
			return orderError(WarnScrapeFirst)
		}
		s.Shown = true
	default:
		return models.NewScrapeError(models.ErrCodeInvalidInput, "unknown workflow action", nil)
	}
	return nil
}

// Fail records that action did not complete. A failed scrape leaves nothing
// to show, so the session must scrape again.
func (s *State) Fail(action Action) {
	switch action {
	case ActionClassify:
		*s = State{}
	case ActionScrape:
		s.Scraped = false
		s.Shown = false
	case ActionShow:
		s.Shown = false
	}
}

func orderError(warning string) error {
	return models.NewScrapeError(models.ErrCodeWorkflowOrder, warning, nil)
}
