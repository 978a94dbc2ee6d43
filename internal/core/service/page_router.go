package service

import (
	"sync"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
)

// PageRouter holds one client's page selection and sidebar visibility.
type PageRouter struct {
	screens *ScreenRegistry

	mu    sync.Mutex
	state domain.NavigationState
}

func NewPageRouter(screens *ScreenRegistry) *PageRouter {
	return &PageRouter{screens: screens}
}

// Select records id as the current page without validating it. Choosing a
// page also closes the sidebar, as a menu click does.
func (r *PageRouter) Select(id domain.PageID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.CurrentPageID = id
	r.state.SidebarOpen = false
}

func (r *PageRouter) ToggleSidebar() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.SidebarOpen = !r.state.SidebarOpen
}

func (r *PageRouter) CloseSidebar() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.SidebarOpen = false
}

// State returns a copy of the navigation state.
func (r *PageRouter) State() domain.NavigationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Resolve returns the screen to render for role. The current selection wins
// only when a screen is registered for it and role has it in its menu;
// everything else lands on the dashboard.
func (r *PageRouter) Resolve(role domain.Role) Screen {
	id := r.State().CurrentPageID
	if id != "" && domain.CanSee(role, id) {
		if screen, ok := r.screens.Lookup(id); ok {
			return screen
		}
	}
	screen, _ := r.screens.Lookup(domain.LandingPage)
	return screen
}
