package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var ErrInvalidRecord = errors.New("invalid record")

// Cell is one rendered attribute of a record. Name matches the form field
// that edits it, when there is one.
type Cell struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Record is a row fetched from a backend collection.
type Record interface {
	RecordID() int
	Cells() []Cell
	Validate() error
}

// Owned is implemented by inputs whose owner is the signed-in user.
type Owned interface {
	SetOwner(userID int)
}

// Multipart is implemented by inputs that travel as multipart/form-data.
type Multipart interface {
	FormFields() map[string]string
}

func requireID(kind string, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s without id", ErrInvalidRecord, kind)
	}
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// ── Vehicles ─────────────────────────────────────────────────────────────────

type Vehicle struct {
	ID           int    `json:"id"`
	UserID       int    `json:"user_id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Color        string `json:"color"`
	LicensePlate string `json:"license_plate"`
	VIN          string `json:"vin"`
	Description  string `json:"description"`
	Notes        string `json:"notes"`
	Image        string `json:"image"`
}

func (v Vehicle) RecordID() int { return v.ID }

func (v Vehicle) Validate() error { return requireID("vehicle", v.ID) }

func (v Vehicle) Cells() []Cell {
	return []Cell{
		{Name: "make", Label: "Make", Value: v.Make},
		{Name: "model", Label: "Model", Value: v.Model},
		{Name: "year", Label: "Year", Value: itoa(v.Year)},
		{Name: "color", Label: "Color", Value: v.Color},
		{Name: "license_plate", Label: "License Plate", Value: v.LicensePlate},
		{Name: "vin", Label: "VIN", Value: v.VIN},
		{Name: "description", Label: "Description", Value: v.Description},
		{Name: "notes", Label: "Notes", Value: v.Notes},
		{Name: "user_id", Label: "User ID", Value: itoa(v.UserID)},
	}
}

type VehicleInput struct {
	UserID       int    `json:"user_id"       form:"user_id"       validate:"required"`
	Make         string `json:"make"          form:"make"          validate:"required"`
	Model        string `json:"model"         form:"model"         validate:"required"`
	Year         int    `json:"year"          form:"year"          validate:"required"`
	Color        string `json:"color"         form:"color"         validate:"required"`
	LicensePlate string `json:"license_plate" form:"license_plate" validate:"required"`
	VIN          string `json:"vin"           form:"vin"`
	Description  string `json:"description"   form:"description"`
	Notes        string `json:"notes"         form:"notes"`
}

func (in *VehicleInput) SetOwner(userID int) { in.UserID = userID }

func (in *VehicleInput) FormFields() map[string]string {
	return map[string]string{
		"user_id":       strconv.Itoa(in.UserID),
		"make":          in.Make,
		"model":         in.Model,
		"year":          strconv.Itoa(in.Year),
		"color":         in.Color,
		"license_plate": in.LicensePlate,
		"vin":           in.VIN,
		"description":   in.Description,
		"notes":         in.Notes,
	}
}

// ── Emergency contacts ───────────────────────────────────────────────────────

type EmergencyContact struct {
	ID               int    `json:"id"`
	UserID           int    `json:"user_id"`
	Name             string `json:"name"`
	Relationship     string `json:"relationship"`
	PhoneNumber      string `json:"phone_number"`
	AlternativePhone string `json:"alternative_phone"`
	Email            string `json:"email"`
	Notes            string `json:"notes"`
}

func (e EmergencyContact) RecordID() int { return e.ID }

func (e EmergencyContact) Validate() error { return requireID("emergency contact", e.ID) }

func (e EmergencyContact) Cells() []Cell {
	return []Cell{
		{Name: "name", Label: "Name", Value: e.Name},
		{Name: "relationship", Label: "Relationship", Value: e.Relationship},
		{Name: "phone_number", Label: "Phone", Value: e.PhoneNumber},
		{Name: "alternative_phone", Label: "Alternative Phone", Value: e.AlternativePhone},
		{Name: "email", Label: "Email", Value: e.Email},
		{Name: "notes", Label: "Notes", Value: e.Notes},
	}
}

type EmergencyContactInput struct {
	UserID           int    `json:"user_id"           form:"user_id"           validate:"required"`
	Name             string `json:"name"              form:"name"              validate:"required"`
	Relationship     string `json:"relationship"      form:"relationship"      validate:"required"`
	PhoneNumber      string `json:"phone_number"      form:"phone_number"      validate:"required"`
	AlternativePhone string `json:"alternative_phone" form:"alternative_phone"`
	Email            string `json:"email,omitempty"   form:"email"             validate:"omitempty,email"`
	Notes            string `json:"notes"             form:"notes"`
}

func (in *EmergencyContactInput) SetOwner(userID int) { in.UserID = userID }

// ── Personal information ─────────────────────────────────────────────────────

type PersonalInfo struct {
	ID           int      `json:"id"`
	UserID       int      `json:"user_id"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Age          int      `json:"age"`
	BloodType    string   `json:"blood_type"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	PostalCode   string   `json:"postal_code"`
	Country      string   `json:"country"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Allergies    string   `json:"allergies"`
	MedicalNotes string   `json:"medical_notes"`
	PhoneNumber  string   `json:"phone_number"`
}

func (p PersonalInfo) RecordID() int { return p.ID }

func (p PersonalInfo) Validate() error { return requireID("personal info", p.ID) }

func (p PersonalInfo) Cells() []Cell {
	return []Cell{
		{Name: "first_name", Label: "First Name", Value: p.FirstName},
		{Name: "last_name", Label: "Last Name", Value: p.LastName},
		{Name: "age", Label: "Age", Value: itoa(p.Age)},
		{Name: "blood_type", Label: "Blood Type", Value: p.BloodType},
		{Name: "phone_number", Label: "Phone", Value: p.PhoneNumber},
		{Name: "address", Label: "Address", Value: p.Address},
		{Name: "city", Label: "City", Value: p.City},
		{Name: "state", Label: "State", Value: p.State},
		{Name: "postal_code", Label: "Postal Code", Value: p.PostalCode},
		{Name: "country", Label: "Country", Value: p.Country},
		{Name: "allergies", Label: "Allergies", Value: p.Allergies},
		{Name: "medical_notes", Label: "Medical Notes", Value: p.MedicalNotes},
	}
}

type PersonalInfoInput struct {
	UserID       int    `json:"user_id"       form:"user_id"       validate:"required"`
	FirstName    string `json:"first_name"    form:"first_name"    validate:"required"`
	LastName     string `json:"last_name"     form:"last_name"     validate:"required"`
	Age          int    `json:"age"           form:"age"           validate:"required"`
	BloodType    string `json:"blood_type,omitempty" form:"blood_type"`
	PhoneNumber  string `json:"phone_number"  form:"phone_number"`
	Address      string `json:"address"       form:"address"`
	City         string `json:"city"          form:"city"`
	State        string `json:"state"         form:"state"`
	PostalCode   string `json:"postal_code"   form:"postal_code"`
	Country      string `json:"country"       form:"country"`
	Allergies    string `json:"allergies"     form:"allergies"`
	MedicalNotes string `json:"medical_notes" form:"medical_notes"`
}

func (in *PersonalInfoInput) SetOwner(userID int) { in.UserID = userID }

// ── Insurance policies ───────────────────────────────────────────────────────

type InsurancePolicy struct {
	ID           int    `json:"id"`
	VehicleID    int    `json:"vehicle_id"`
	PolicyNumber string `json:"policy_number"`
	Company      string `json:"company"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	CoverageType string `json:"coverage_type"`
	PDFFilePath  string `json:"pdf_file_path"`
	Notes        string `json:"notes"`
}

func (p InsurancePolicy) RecordID() int { return p.ID }

func (p InsurancePolicy) Validate() error { return requireID("insurance policy", p.ID) }

func (p InsurancePolicy) Cells() []Cell {
	return []Cell{
		{Name: "company", Label: "Company", Value: p.Company},
		{Name: "policy_number", Label: "Policy Number", Value: p.PolicyNumber},
		{Name: "coverage_type", Label: "Coverage", Value: p.CoverageType},
		{Name: "start_date", Label: "Start", Value: p.StartDate},
		{Name: "end_date", Label: "End", Value: p.EndDate},
		{Name: "vehicle_id", Label: "Vehicle", Value: itoa(p.VehicleID)},
		{Name: "notes", Label: "Notes", Value: p.Notes},
		{Name: "pdf_file_path", Label: "Document", Value: p.PDFFilePath},
	}
}

type InsurancePolicyInput struct {
	UserID       int    `json:"user_id"       form:"user_id"       validate:"required"`
	VehicleID    int    `json:"vehicle_id"    form:"vehicle_id"    validate:"required"`
	Company      string `json:"company"       form:"company"       validate:"required"`
	PolicyNumber string `json:"policy_number" form:"policy_number" validate:"required"`
	CoverageType string `json:"coverage_type" form:"coverage_type"`
	StartDate    string `json:"start_date"    form:"start_date"    validate:"required"`
	EndDate      string `json:"end_date"      form:"end_date"      validate:"required"`
	Notes        string `json:"notes"         form:"notes"`
}

func (in *InsurancePolicyInput) SetOwner(userID int) { in.UserID = userID }

func (in *InsurancePolicyInput) FormFields() map[string]string {
	return map[string]string{
		"user_id":       strconv.Itoa(in.UserID),
		"vehicle_id":    strconv.Itoa(in.VehicleID),
		"company":       in.Company,
		"policy_number": in.PolicyNumber,
		"coverage_type": in.CoverageType,
		"start_date":    in.StartDate,
		"end_date":      in.EndDate,
		"notes":         in.Notes,
	}
}

// ── User accounts ────────────────────────────────────────────────────────────

type UserAccount struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"is_active"`
}

func (u UserAccount) RecordID() int { return u.ID }

func (u UserAccount) Validate() error {
	if err := requireID("user", u.ID); err != nil {
		return err
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: user %d: %w", ErrInvalidRecord, u.ID, ErrUnknownRole)
	}
	return nil
}

func (u UserAccount) Cells() []Cell {
	active := "no"
	if u.IsActive {
		active = "yes"
	}
	return []Cell{
		{Name: "username", Label: "Username", Value: u.Username},
		{Name: "email", Label: "Email", Value: u.Email},
		{Name: "role", Label: "Role", Value: string(u.Role)},
		{Name: "is_active", Label: "Active", Value: active},
	}
}

type UserAccountInput struct {
	Username string `json:"username"                form:"username" validate:"required"`
	Email    string `json:"email"                   form:"email"    validate:"required,email"`
	Password string `json:"password_hash,omitempty" form:"password"`
	Role     string `json:"role"                    form:"role"     validate:"required,oneof=user monitor admin"`
}

// Records is a backend collection. It accepts either a JSON array or a single
// object, since some per-user endpoints return one record instead of a list.
type Records[R Record] []R

func (rs *Records[R]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte(`""`)):
		*rs = nil
		return nil
	case b[0] == '{':
		var one R
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*rs = Records[R]{one}
		return nil
	default:
		var many []R
		if err := json.Unmarshal(b, &many); err != nil {
			return err
		}
		*rs = many
		return nil
	}
}

// Validate checks every record of the collection.
func (rs Records[R]) Validate() error {
	for i, r := range rs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}
