package web

import (
	"bytes"
	"strings"
	"testing"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
)

func render(t *testing.T, data Shell) string {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, data.Page(), data, nil); err != nil {
		t.Fatalf("render %s: %v", data.Page(), err)
	}
	return buf.String()
}

func TestRender_LoginWithError(t *testing.T) {
	out := render(t, Shell{Status: domain.StatusAnonymous, LoginError: "Invalid credentials", Username: "bob"})
	if !strings.Contains(out, "Invalid credentials") || !strings.Contains(out, `value="bob"`) {
		t.Fatalf("login page missing error or username:\n%s", out)
	}
}

func TestRender_Loading(t *testing.T) {
	out := render(t, Shell{Status: domain.StatusLoading})
	if !strings.Contains(out, "Cargando") {
		t.Fatalf("expected loading indicator:\n%s", out)
	}
}

func TestRender_AppWithMenuAndRows(t *testing.T) {
	view := service.ScreenView{
		PageID:    domain.PageVehicles,
		Title:     "Mis motos",
		Columns:   []string{"Make"},
		Rows:      []service.ScreenRow{{ID: 3, Cells: []domain.Cell{{Name: "make", Label: "Make", Value: "Honda"}}}},
		Fields:    []service.FormField{{Name: "make", Label: "Make", Type: "text", Required: true}},
		FileField: "image",
		CanCreate: true,
		CanEdit:   true,
		CanDelete: true,
	}
	values, ok := FormValues(view, 3)
	if !ok || values["make"] != "Honda" {
		t.Fatalf("unexpected form values: %v", values)
	}

	out := render(t, Shell{
		Status:    domain.StatusAuthenticated,
		User:      &domain.Profile{ID: 1, Username: "alice", Role: domain.RoleAdmin},
		Menu:      domain.ResolveMenu(domain.RoleAdmin),
		Screen:    view,
		EditingID: 3,
		Values:    values,
	})
	for _, want := range []string{"All Users", "Honda", "/screens/vehicles/items/3", `enctype="multipart/form-data"`, "Admin"} {
		if !strings.Contains(out, want) {
			t.Errorf("app page missing %q", want)
		}
	}
}

func TestRender_UserMenuHidesAdminPages(t *testing.T) {
	out := render(t, Shell{
		Status: domain.StatusAuthenticated,
		User:   &domain.Profile{ID: 2, Username: "bob", Role: domain.RoleUser},
		Menu:   domain.ResolveMenu(domain.RoleUser),
		Screen: service.ScreenView{PageID: domain.PageDashboard, Title: "Inicio"},
	})
	if strings.Contains(out, "All Users") {
		t.Fatalf("user menu must not list admin pages")
	}
	if !strings.Contains(out, "Mis motos") {
		t.Fatalf("user menu missing vehicles")
	}
}
