// Package gate decides which views are reachable for a project status.
package gate

import (
	"fmt"

	"github.com/alfredjeanlab/codescope/internal/model"
)

// ReachableViews returns the views that may be opened while the project has
// the given status. The upload view is always reachable; the analysis views
// only once the project is ready.
func ReachableViews(status model.ProjectStatus) []model.View {
	if status == model.StatusReady {
		return []model.View{model.ViewUpload, model.ViewSearch, model.ViewSemantic, model.ViewQuality}
	}
	return []model.View{model.ViewUpload}
}

// Reachable reports whether view is reachable for status.
func Reachable(status model.ProjectStatus, view model.View) bool {
	for _, v := range ReachableViews(status) {
		if v == view {
			return true
		}
	}
	return false
}

// Check returns an error wrapping model.ErrNotReady when view cannot be
// opened for status.
func Check(status model.ProjectStatus, view model.View) error {
	if !view.IsValid() {
		return fmt.Errorf("unknown view %q", view)
	}
	if !Reachable(status, view) {
		return fmt.Errorf("%s view requires a ready project (status %s): %w", view, status, model.ErrNotReady)
	}
	return nil
}
