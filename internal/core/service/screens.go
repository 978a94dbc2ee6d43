package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/ports"
)

// DefaultPoliciesPath is the insurance collection on the reference backend.
const DefaultPoliciesPath = "/api/insurance-policies"

// ScreenRegistry maps page ids to screens. It is filled at startup and read
// concurrently afterwards.
type ScreenRegistry struct {
	mu      sync.RWMutex
	screens map[domain.PageID]Screen
}

func NewScreenRegistry(screens ...Screen) *ScreenRegistry {
	r := &ScreenRegistry{screens: make(map[domain.PageID]Screen, len(screens))}
	for _, s := range screens {
		r.Register(s)
	}
	return r
}

// Register adds s, replacing any screen with the same id.
func (r *ScreenRegistry) Register(s Screen) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screens[s.ID()] = s
}

func (r *ScreenRegistry) Lookup(id domain.PageID) (Screen, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.screens[id]
	return s, ok
}

// DashboardScreen is the landing page. It lists nothing and accepts no edits.
type DashboardScreen struct{}

func (DashboardScreen) ID() domain.PageID { return domain.PageDashboard }
func (DashboardScreen) Title() string     { return "Inicio" }

func (d DashboardScreen) Load(_ context.Context, sess domain.Session) ScreenView {
	view := ScreenView{PageID: d.ID(), Title: d.Title(), Rows: []ScreenRow{}}
	if sess.User != nil {
		view.Message = fmt.Sprintf("Welcome, %s (%s)", sess.User.Username, sess.User.Role)
	}
	return view
}

func (DashboardScreen) Submit(context.Context, domain.Session, SubmitRequest) error {
	return domain.ErrReadOnly
}

func (DashboardScreen) Delete(context.Context, domain.Session, int) error {
	return domain.ErrReadOnly
}

// DefaultScreens builds the registry for the reference backend. policiesPath
// overrides the insurance collection base; empty keeps DefaultPoliciesPath.
func DefaultScreens(api ports.ResourceAPI, v Validator, policiesPath string, log zerolog.Logger) *ScreenRegistry {
	if policiesPath == "" {
		policiesPath = DefaultPoliciesPath
	}
	policiesPath = strings.TrimRight(policiesPath, "/")

	return NewScreenRegistry(
		DashboardScreen{},
		NewResourceScreen[domain.Vehicle, domain.VehicleInput](ScreenDefinition{
			ID:             domain.PageVehicles,
			Title:          "Mis motos",
			ListPath:       "/api/vehicles/user/{user_id}",
			CreatePath:     "/api/vehicles/",
			UpdatePath:     "/api/vehicles/{id}",
			DeletePath:     "/api/vehicles/{id}",
			EnvelopeKey:    "vehicles",
			Fields:         vehicleFields,
			FileField:      "image",
			OwnedBySession: true,
		}, api, v, log),
		NewResourceScreen[domain.EmergencyContact, domain.EmergencyContactInput](ScreenDefinition{
			ID:             domain.PageEmergencyContacts,
			Title:          "Contactos Emergencia",
			ListPath:       "/api/emergency-contacts/user/{user_id}",
			CreatePath:     "/api/emergency-contacts/",
			UpdatePath:     "/api/emergency-contacts/{id}",
			DeletePath:     "/api/emergency-contacts/{id}",
			EnvelopeKey:    "contacts",
			Fields:         contactFields,
			OwnedBySession: true,
		}, api, v, log),
		NewResourceScreen[domain.PersonalInfo, domain.PersonalInfoInput](ScreenDefinition{
			ID:              domain.PagePersonalInfo,
			Title:           "Informacion Personal",
			ListPath:        "/api/personal-info/user/{user_id}",
			CreatePath:      "/api/personal-info/",
			UpdatePath:      "/api/personal-info/{id}",
			DeletePath:      "/api/personal-info/{id}",
			EnvelopeKey:     "personal_info",
			Fields:          personalInfoFields,
			NotFoundIsEmpty: true,
			OwnedBySession:  true,
		}, api, v, log),
		NewResourceScreen[domain.InsurancePolicy, domain.InsurancePolicyInput](ScreenDefinition{
			ID:             domain.PageInsurance,
			Title:          "Seguros",
			ListPath:       policiesPath + "/user/{user_id}",
			CreatePath:     policiesPath + "/",
			UpdatePath:     policiesPath + "/{id}",
			DeletePath:     policiesPath + "/{id}",
			EnvelopeKey:    "policies",
			Fields:         policyFields,
			FileField:      "policy_file",
			OwnedBySession: true,
		}, api, v, log),
		NewResourceScreen[domain.UserAccount, domain.UserAccountInput](ScreenDefinition{
			ID:          domain.PageAllUsers,
			Title:       "All Users",
			ListPath:    "/api/users/",
			CreatePath:  "/api/users/",
			UpdatePath:  "/api/users/{id}",
			DeletePath:  "/api/users/{id}",
			EnvelopeKey: "users",
			Fields:      userFields,
		}, api, v, log),
		NewResourceScreen[domain.Vehicle, domain.VehicleInput](ScreenDefinition{
			ID:          domain.PageAllVehicles,
			Title:       "All Vehicles",
			ListPath:    "/api/vehicles/",
			CreatePath:  "/api/admin/vehicles/",
			UpdatePath:  "/api/admin/vehicles/{id}",
			DeletePath:  "/api/admin/vehicles/{id}",
			EnvelopeKey: "vehicles",
			Fields:      append([]FormField{{Name: "user_id", Label: "User ID", Type: "number", Required: true}}, vehicleFields...),
			FileField:   "image",
		}, api, v, log),
		NewResourceScreen[domain.PersonalInfo, domain.PersonalInfoInput](ScreenDefinition{
			ID:          domain.PageAllPersonalInfo,
			Title:       "All Personal Info",
			ListPath:    "/api/personal-info/",
			UpdatePath:  "/api/personal-info/{id}",
			DeletePath:  "/api/personal-info/{id}",
			EnvelopeKey: "personal_info",
			Fields:      append([]FormField{{Name: "user_id", Label: "User ID", Type: "number", Required: true}}, personalInfoFields...),
		}, api, v, log),
	)
}

var vehicleFields = []FormField{
	{Name: "make", Label: "Make", Type: "text", Required: true},
	{Name: "model", Label: "Model", Type: "text", Required: true},
	{Name: "year", Label: "Year", Type: "number", Required: true},
	{Name: "color", Label: "Color", Type: "text", Required: true},
	{Name: "license_plate", Label: "License Plate", Type: "text", Required: true},
	{Name: "vin", Label: "VIN", Type: "text"},
	{Name: "description", Label: "Description", Type: "textarea"},
	{Name: "notes", Label: "Notes", Type: "textarea"},
}

var contactFields = []FormField{
	{Name: "name", Label: "Name", Type: "text", Required: true},
	{Name: "relationship", Label: "Relationship", Type: "text", Required: true},
	{Name: "phone_number", Label: "Phone", Type: "tel", Required: true},
	{Name: "alternative_phone", Label: "Alternative Phone", Type: "tel"},
	{Name: "email", Label: "Email", Type: "email"},
	{Name: "notes", Label: "Notes", Type: "textarea"},
}

var personalInfoFields = []FormField{
	{Name: "first_name", Label: "First Name", Type: "text", Required: true},
	{Name: "last_name", Label: "Last Name", Type: "text", Required: true},
	{Name: "age", Label: "Age", Type: "number", Required: true},
	{Name: "blood_type", Label: "Blood Type", Type: "select", Options: []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}},
	{Name: "phone_number", Label: "Phone", Type: "tel"},
	{Name: "address", Label: "Address", Type: "text"},
	{Name: "city", Label: "City", Type: "text"},
	{Name: "state", Label: "State", Type: "text"},
	{Name: "postal_code", Label: "Postal Code", Type: "text"},
	{Name: "country", Label: "Country", Type: "text"},
	{Name: "allergies", Label: "Allergies", Type: "textarea"},
	{Name: "medical_notes", Label: "Medical Notes", Type: "textarea"},
}

var policyFields = []FormField{
	{Name: "vehicle_id", Label: "Vehicle", Type: "number", Required: true},
	{Name: "company", Label: "Company", Type: "text", Required: true},
	{Name: "policy_number", Label: "Policy Number", Type: "text", Required: true},
	{Name: "coverage_type", Label: "Coverage", Type: "text"},
	{Name: "start_date", Label: "Start", Type: "date", Required: true},
	{Name: "end_date", Label: "End", Type: "date", Required: true},
	{Name: "notes", Label: "Notes", Type: "textarea"},
}

var userFields = []FormField{
	{Name: "username", Label: "Username", Type: "text", Required: true},
	{Name: "email", Label: "Email", Type: "email", Required: true},
	{Name: "password", Label: "Password", Type: "password"},
	{Name: "role", Label: "Role", Type: "select", Required: true, Options: []string{"user", "monitor", "admin"}},
}
