package web

import (
	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
)

// Shell is the data every page of the application shell renders from.
type Shell struct {
	Status domain.SessionStatus
	User   *domain.Profile
	Menu   []domain.MenuItem
	Nav    domain.NavigationState
	Screen service.ScreenView

	// EditingID is the row whose values fill the form; zero means create.
	EditingID int
	Values    map[string]string

	LoginError string
	Username   string
	Email      string
}

// Page picks the template that matches the session status.
func (s Shell) Page() string {
	switch s.Status {
	case domain.StatusAuthenticated:
		return "app"
	case domain.StatusAnonymous:
		return "login"
	default:
		return "loading"
	}
}

// FormValues returns the editable values of row id in view, keyed by field name.
func FormValues(view service.ScreenView, id int) (map[string]string, bool) {
	for _, row := range view.Rows {
		if row.ID != id {
			continue
		}
		values := make(map[string]string, len(row.Cells))
		for _, c := range row.Cells {
			values[c.Name] = c.Value
		}
		return values, true
	}
	return nil, false
}
