package domain

import "slices"

// PageID identifies a navigable section of the application.
type PageID string

const (
	PageDashboard            PageID = "dashboard"
	PageVehicles             PageID = "vehicles"
	PageEmergencyContacts    PageID = "emergency-contacts"
	PagePersonalInfo         PageID = "personal-info"
	PageInsurance            PageID = "insurance"
	PageAllUsers             PageID = "all-users"
	PageAllVehicles          PageID = "all-vehicles"
	PageAllEmergencyContacts PageID = "all-emergency-contacts"
	PageAllPersonalInfo      PageID = "all-personal-info"
)

// LandingPage is rendered when the selection is unset, unknown or hidden.
const LandingPage = PageDashboard

// MenuItem is one entry of the navigation catalog.
type MenuItem struct {
	ID    PageID `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Roles []Role `json:"-"`
}

// Allows reports whether role may see the item.
func (m MenuItem) Allows(role Role) bool {
	return slices.Contains(m.Roles, role)
}

var everyone = []Role{RoleAdmin, RoleMonitor, RoleUser}

// menuCatalog is declared in display order.
var menuCatalog = []MenuItem{
	{ID: PageDashboard, Label: "Inicio", Icon: "home", Roles: everyone},
	{ID: PageVehicles, Label: "Mis motos", Icon: "motorbike", Roles: everyone},
	{ID: PageEmergencyContacts, Label: "Contactos Emergencia", Icon: "phone", Roles: everyone},
	{ID: PagePersonalInfo, Label: "Informacion Personal", Icon: "user", Roles: everyone},
	{ID: PageInsurance, Label: "Seguros", Icon: "shield", Roles: everyone},
	{ID: PageAllUsers, Label: "All Users", Icon: "users", Roles: []Role{RoleAdmin}},
	{ID: PageAllVehicles, Label: "All Vehicles", Icon: "car", Roles: []Role{RoleAdmin}},
	{ID: PageAllEmergencyContacts, Label: "All Emergency Contacts", Icon: "phone", Roles: []Role{RoleAdmin}},
	{ID: PageAllPersonalInfo, Label: "All Personal Info", Icon: "file-text", Roles: []Role{RoleAdmin}},
}

// MenuCatalog returns a copy of the static catalog.
func MenuCatalog() []MenuItem {
	return cloneItems(menuCatalog)
}

// ResolveMenu returns the catalog entries visible to role, in catalog order.
func ResolveMenu(role Role) []MenuItem {
	return ResolveMenuFrom(role, menuCatalog)
}

// ResolveMenuFrom filters catalog for role without touching catalog.
func ResolveMenuFrom(role Role, catalog []MenuItem) []MenuItem {
	out := make([]MenuItem, 0, len(catalog))
	for _, item := range catalog {
		if item.Allows(role) {
			out = append(out, cloneItem(item))
		}
	}
	return out
}

// CanSee reports whether role has id in its menu.
func CanSee(role Role, id PageID) bool {
	for _, item := range menuCatalog {
		if item.ID == id {
			return item.Allows(role)
		}
	}
	return false
}

func cloneItems(items []MenuItem) []MenuItem {
	out := make([]MenuItem, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}

func cloneItem(item MenuItem) MenuItem {
	item.Roles = slices.Clone(item.Roles)
	return item
}

// NavigationState is the transient page selection of one client.
type NavigationState struct {
	CurrentPageID PageID `json:"current_page_id"`
	SidebarOpen   bool   `json:"sidebar_open"`
}
