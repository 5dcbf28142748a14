package client

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Subscription types a dietitian can hold.
const (
	SubscriptionStandard = "STANDARD"
	SubscriptionPro      = "PRO"
)

const maxNameLength = 64

type Dietitian struct {
	ID               uuid.UUID `db:"id" json:"id"`
	EmailHash        string    `db:"email_hash" json:"-"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	Name             string    `db:"name" json:"name"`
	SubscriptionType *string   `db:"subscription_type" json:"subscriptionType,omitempty"`
	IsActive         bool      `db:"is_active" json:"isActive"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

type Client struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	EmailHash    string     `db:"email_hash" json:"-"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	DateOfBirth  *time.Time `db:"date_of_birth" json:"dob,omitempty"`
	Sex          string     `db:"sex" json:"gender"`
	DietitianID  uuid.UUID  `db:"dietitian_id" json:"dietitianId"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// Status renders the active flag the way the roster shows it.
func (c *Client) Status() string {
	if c.IsActive {
		return "Active"
	}
	return "Inactive"
}

// PhysicalDetails is one dated body measurement. The latest by
// MeasurementDate is authoritative.
type PhysicalDetails struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ClientID        uuid.UUID  `db:"client_id" json:"clientId"`
	RecordedBy      *uuid.UUID `db:"recorded_by" json:"recordedBy,omitempty"`
	ActivityLevel   *string    `db:"activity_level" json:"activity,omitempty"`
	Weight          *float64   `db:"weight" json:"weight,omitempty"`
	Height          *float64   `db:"height" json:"height,omitempty"`
	BodyFat         *float64   `db:"body_fat" json:"bodyfat,omitempty"`
	MeasurementDate time.Time  `db:"measurement_date" json:"measurementDate"`
}

type MedicalDetails struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ClientID    uuid.UUID  `db:"client_id" json:"clientId"`
	MedicalData string     `db:"medical_data" json:"medicalData"`
	RecordedBy  *uuid.UUID `db:"recorded_by" json:"recordedBy,omitempty"`
	RecordedOn  time.Time  `db:"recorded_on" json:"recordedOn"`
}

// RosterEntry is one row of a dietitian's client list.
type RosterEntry struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Gender string    `json:"gender"`
	Age    *int      `json:"age"`
	Status string    `json:"status"`
}

// Details is the full profile of a client: identity, latest measurement and
// medical history.
type Details struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DOB             *string   `json:"dob"`
	Gender          string    `json:"gender"`
	Status          string    `json:"status"`
	Weight          *float64  `json:"weight"`
	Height          *float64  `json:"height"`
	BodyFat         *float64  `json:"bodyfat"`
	Activity        *string   `json:"activity"`
	MeasurementDate *string   `json:"measurementDate"`
	MedicalReport   string    `json:"medicalReport"`
}

// Profile bundles what nutrition estimates need about a client.
type Profile struct {
	Client   *Client
	Physical *PhysicalDetails
	Medical  []*MedicalDetails
}

// NoMedicalRecords stands in for the medical text of a client without
// records.
const NoMedicalRecords = "No medical records found"

// MedicalText joins all medical notes in recording order.
func (p *Profile) MedicalText() string {
	if len(p.Medical) == 0 {
		return NoMedicalRecords
	}
	texts := make([]string, 0, len(p.Medical))
	for _, m := range p.Medical {
		texts = append(texts, m.MedicalData)
	}
	return strings.Join(texts, "\n")
}

// CreateClientInput is the body of POST /clients.
type CreateClientInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	DOB      string `json:"dob"`
	Gender   string `json:"gender"`
}

// RegisterDietitianInput is the body of POST /auth/register.
type RegisterDietitianInput struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	SubscriptionType string `json:"subscriptionType"`
}

// PhysicalInput is the body of POST /clients/:id/physical-details.
// MeasurementDate defaults to today.
type PhysicalInput struct {
	Weight          *float64 `json:"weight"`
	Height          *float64 `json:"height"`
	BodyFat         *float64 `json:"bodyfat"`
	Activity        string   `json:"activity"`
	MeasurementDate string   `json:"measurementDate"`
}

type MedicalInput struct {
	MedicalData string `json:"medicalData"`
}
