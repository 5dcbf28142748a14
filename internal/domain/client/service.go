package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
	"github.com/nutriplan/nutriplan/internal/platform/auth"
	"github.com/nutriplan/nutriplan/internal/platform/websocket"
)

type Service struct {
	dietitians DietitianRepository
	clients    ClientRepository
	physical   PhysicalRepository
	medical    MedicalRepository
	loc        *time.Location
	now        func() time.Time
	logger     zerolog.Logger
}

func NewService(
	dietitians DietitianRepository,
	clients ClientRepository,
	physical PhysicalRepository,
	medical MedicalRepository,
	loc *time.Location,
	logger zerolog.Logger,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		dietitians: dietitians,
		clients:    clients,
		physical:   physical,
		medical:    medical,
		loc:        loc,
		now:        time.Now,
		logger:     logger.With().Str("component", "client").Logger(),
	}
}

// Today returns the current calendar date in the configured location.
func (s *Service) Today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// -- Accounts --

// Account is the credential record shared by dietitians and clients.
type Account struct {
	Identity     auth.Identity
	Name         string
	PasswordHash string
	Active       bool
}

// FindAccount looks up a login account by the hash of its email.
func (s *Service) FindAccount(ctx context.Context, kind auth.Kind, emailHash string) (*Account, error) {
	switch kind {
	case auth.KindDietitian:
		d, err := s.dietitians.GetByEmailHash(ctx, emailHash)
		if errors.Is(err, ErrDietitianNotFound) {
			return nil, apperr.NotFound("account")
		}
		if err != nil {
			return nil, apperr.Persistence("get dietitian", err)
		}
		return &Account{Identity: auth.Identity{Kind: kind, ID: d.ID}, Name: d.Name, PasswordHash: d.PasswordHash, Active: d.IsActive}, nil
	case auth.KindClient:
		c, err := s.clients.GetByEmailHash(ctx, emailHash)
		if errors.Is(err, ErrClientNotFound) {
			return nil, apperr.NotFound("account")
		}
		if err != nil {
			return nil, apperr.Persistence("get client", err)
		}
		return &Account{Identity: auth.Identity{Kind: kind, ID: c.ID}, Name: c.Name, PasswordHash: c.PasswordHash, Active: c.IsActive}, nil
	}
	return nil, apperr.Validation("unknown user type %q", kind)
}

type credentials struct {
	name, emailHash, passwordHash string
}

func validateCredentials(name, email, password string) (*credentials, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if len(name) > maxNameLength {
		return nil, apperr.Validation("name exceeds %d characters", maxNameLength)
	}
	cleanEmail, ok := auth.SanitizeEmail(email)
	if !ok {
		return nil, apperr.Validation("invalid email")
	}
	if _, ok := auth.SanitizePassword(password); !ok {
		return nil, apperr.Validation("password must be %d to %d bytes and contain no control sequences",
			auth.MinPasswordChars, auth.MaxPasswordBytes)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	return &credentials{name: name, emailHash: auth.HashEmail(cleanEmail), passwordHash: hash}, nil
}

// RegisterDietitian creates an active dietitian account.
func (s *Service) RegisterDietitian(ctx context.Context, in RegisterDietitianInput) (*Dietitian, error) {
	creds, err := validateCredentials(in.Name, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	d := &Dietitian{
		EmailHash:    creds.emailHash,
		PasswordHash: creds.passwordHash,
		Name:         creds.name,
		IsActive:     true,
	}
	if sub := strings.ToUpper(strings.TrimSpace(in.SubscriptionType)); sub != "" {
		if sub != SubscriptionStandard && sub != SubscriptionPro {
			return nil, apperr.Validation("subscriptionType must be %s or %s", SubscriptionStandard, SubscriptionPro)
		}
		d.SubscriptionType = &sub
	}

	if err := s.dietitians.Create(ctx, d); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, apperr.ErrConflict
		}
		return nil, apperr.Persistence("create dietitian", err)
	}
	s.logger.Info().Str("dietitian_id", d.ID.String()).Msg("dietitian registered")
	return d, nil
}

// -- Roster --

var validGenders = map[string]bool{"male": true, "female": true, "other": true}

// CreateClient adds an active client to the dietitian's roster.
func (s *Service) CreateClient(ctx context.Context, dietitianID uuid.UUID, in CreateClientInput) (*Client, error) {
	gender := strings.TrimSpace(in.Gender)
	if !validGenders[strings.ToLower(gender)] {
		return nil, apperr.Validation("gender must be male, female or other")
	}
	if strings.TrimSpace(in.DOB) == "" {
		return nil, apperr.Validation("dob is required")
	}
	dob, err := time.Parse(DateLayout, strings.TrimSpace(in.DOB))
	if err != nil {
		return nil, apperr.Validation("dob must be YYYY-MM-DD")
	}
	if dob.After(s.Today()) {
		return nil, apperr.Validation("dob must not be in the future")
	}
	creds, err := validateCredentials(in.Name, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	c := &Client{
		EmailHash:    creds.emailHash,
		PasswordHash: creds.passwordHash,
		Name:         creds.name,
		DateOfBirth:  &dob,
		Sex:          gender,
		DietitianID:  dietitianID,
		IsActive:     true,
	}
	if err := s.clients.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, apperr.ErrConflict
		}
		return nil, apperr.Persistence("create client", err)
	}
	s.logger.Info().Str("client_id", c.ID.String()).Str("dietitian_id", dietitianID.String()).Msg("client created")
	return c, nil
}

// Roster lists the dietitian's clients, active ones only unless
// includeInactive is set.
func (s *Service) Roster(ctx context.Context, dietitianID uuid.UUID, includeInactive bool, limit, offset int) ([]RosterEntry, int, error) {
	clients, total, err := s.clients.ListByDietitian(ctx, dietitianID, !includeInactive, limit, offset)
	if err != nil {
		return nil, 0, apperr.Persistence("list clients", err)
	}
	today := s.Today()
	out := make([]RosterEntry, 0, len(clients))
	for _, c := range clients {
		e := RosterEntry{ID: c.ID, Name: c.Name, Gender: c.Sex, Status: c.Status()}
		if c.DateOfBirth != nil {
			age := nutrition.Age(*c.DateOfBirth, today)
			e.Age = &age
		}
		out = append(out, e)
	}
	return out, total, nil
}

// -- Access --

// Authorize returns the client if caller may read it: the client itself or
// its dietitian. Anyone else gets the same not-found error as for a
// missing client.
func (s *Service) Authorize(ctx context.Context, caller auth.Identity, clientID uuid.UUID) (*Client, error) {
	c, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	switch {
	case caller.IsClient() && caller.ID == c.ID:
		return c, nil
	case caller.IsDietitian() && caller.ID == c.DietitianID:
		return c, nil
	}
	s.logger.Warn().Str("caller", caller.String()).Str("client_id", clientID.String()).Msg("client access denied")
	return nil, apperr.NotFound("client")
}

// AuthorizeOwner is Authorize restricted to the client's dietitian.
func (s *Service) AuthorizeOwner(ctx context.Context, caller auth.Identity, clientID uuid.UUID) (*Client, error) {
	if !caller.IsDietitian() {
		return nil, apperr.NotFound("client")
	}
	return s.Authorize(ctx, caller, clientID)
}

// Get returns the client regardless of caller.
func (s *Service) Get(ctx context.Context, clientID uuid.UUID) (*Client, error) {
	c, err := s.clients.GetByID(ctx, clientID)
	if errors.Is(err, ErrClientNotFound) {
		return nil, apperr.NotFound("client")
	}
	if err != nil {
		return nil, apperr.Persistence("get client", err)
	}
	return c, nil
}

// Deactivate clears the active flag. Plans and history are kept.
func (s *Service) Deactivate(ctx context.Context, caller auth.Identity, clientID uuid.UUID) error {
	if _, err := s.AuthorizeOwner(ctx, caller, clientID); err != nil {
		return err
	}
	if err := s.clients.SetActive(ctx, clientID, false); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return apperr.NotFound("client")
		}
		return apperr.Persistence("deactivate client", err)
	}
	s.logger.Info().Str("client_id", clientID.String()).Msg("client deactivated")
	return nil
}

// -- Profile --

// AddPhysical records a measurement taken by dietitianID.
func (s *Service) AddPhysical(ctx context.Context, dietitianID, clientID uuid.UUID, in PhysicalInput) (*PhysicalDetails, error) {
	if in.Weight != nil && *in.Weight <= 0 {
		return nil, apperr.Validation("weight must be positive")
	}
	if in.Height != nil && *in.Height <= 0 {
		return nil, apperr.Validation("height must be positive")
	}
	if in.BodyFat != nil && (*in.BodyFat < 0 || *in.BodyFat >= 100) {
		return nil, apperr.Validation("bodyfat must be between 0 and 100")
	}
	if in.Weight == nil && in.Height == nil && in.BodyFat == nil && strings.TrimSpace(in.Activity) == "" {
		return nil, apperr.Validation("at least one measurement is required")
	}

	p := &PhysicalDetails{
		ClientID:        clientID,
		RecordedBy:      &dietitianID,
		Weight:          in.Weight,
		Height:          in.Height,
		BodyFat:         in.BodyFat,
		MeasurementDate: s.Today(),
	}
	if a := strings.TrimSpace(in.Activity); a != "" {
		level, ok := nutrition.CanonicalActivity(a)
		if !ok {
			return nil, apperr.Validation("unknown activity level %q", a)
		}
		p.ActivityLevel = &level
	}
	if in.MeasurementDate != "" {
		d, err := time.Parse(DateLayout, in.MeasurementDate)
		if err != nil {
			return nil, apperr.Validation("measurementDate must be YYYY-MM-DD")
		}
		p.MeasurementDate = d
	}

	if err := s.physical.Create(ctx, p); err != nil {
		return nil, apperr.Persistence("create physical details", err)
	}
	return p, nil
}

// AddMedical records a free-text medical note.
func (s *Service) AddMedical(ctx context.Context, dietitianID, clientID uuid.UUID, in MedicalInput) (*MedicalDetails, error) {
	text := strings.TrimSpace(in.MedicalData)
	if text == "" {
		return nil, apperr.Validation("medicalData is required")
	}
	m := &MedicalDetails{ClientID: clientID, MedicalData: text, RecordedBy: &dietitianID, RecordedOn: s.Today()}
	if err := s.medical.Create(ctx, m); err != nil {
		return nil, apperr.Persistence("create medical details", err)
	}
	return m, nil
}

// Profile loads the client with its latest measurement and medical notes.
// Physical is nil when nothing has been measured.
func (s *Service) Profile(ctx context.Context, clientID uuid.UUID) (*Profile, error) {
	c, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	p := &Profile{Client: c}

	phys, err := s.physical.Latest(ctx, clientID)
	switch {
	case errors.Is(err, ErrNoMeasurement):
	case err != nil:
		return nil, apperr.Persistence("get physical details", err)
	default:
		p.Physical = phys
	}

	p.Medical, err = s.medical.ListByClient(ctx, clientID)
	if err != nil {
		return nil, apperr.Persistence("list medical details", err)
	}
	return p, nil
}

// Details renders the full profile of c.
func (s *Service) Details(ctx context.Context, c *Client) (*Details, error) {
	p, err := s.Profile(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	d := &Details{
		ID:            c.ID,
		Name:          c.Name,
		Gender:        c.Sex,
		Status:        c.Status(),
		MedicalReport: p.MedicalText(),
	}
	if c.DateOfBirth != nil {
		dob := c.DateOfBirth.Format(DateLayout)
		d.DOB = &dob
	}
	if ph := p.Physical; ph != nil {
		date := ph.MeasurementDate.Format(DateLayout)
		d.Weight, d.Height, d.BodyFat, d.Activity = ph.Weight, ph.Height, ph.BodyFat, ph.ActivityLevel
		d.MeasurementDate = &date
	}
	return d, nil
}

// NutritionProfile converts p into TDEE inputs as of today. It fails with
// ErrIncompleteProfile when nothing has been measured.
func (p *Profile) NutritionProfile(today time.Time) (nutrition.Profile, error) {
	if p.Physical == nil {
		return nutrition.Profile{}, fmt.Errorf("%w: no physical details recorded", apperr.ErrIncompleteProfile)
	}
	np := nutrition.Profile{
		Sex:     p.Client.Sex,
		Weight:  p.Physical.Weight,
		Height:  p.Physical.Height,
		BodyFat: p.Physical.BodyFat,
	}
	if p.Physical.ActivityLevel != nil {
		np.ActivityLevel = *p.Physical.ActivityLevel
	}
	if p.Client.DateOfBirth != nil {
		age := nutrition.Age(*p.Client.DateOfBirth, today)
		np.Age = &age
	}
	return np, nil
}

// Estimate computes TDEE and lean body mass from the latest measurement.
func (s *Service) Estimate(ctx context.Context, clientID uuid.UUID) (*nutrition.Estimate, error) {
	p, err := s.Profile(ctx, clientID)
	if err != nil {
		return nil, err
	}
	np, err := p.NutritionProfile(s.Today())
	if err != nil {
		return nil, err
	}
	return nutrition.TDEE(np)
}

// -- Realtime --

// Topics lists the websocket topics caller may follow: its own for a
// client, those of every active client on the roster for a dietitian.
func (s *Service) Topics(ctx context.Context, caller auth.Identity) ([]string, error) {
	if caller.IsClient() {
		return []string{websocket.ClientTopic(caller.ID)}, nil
	}
	const page = 500
	var topics []string
	for offset := 0; ; offset += page {
		clients, total, err := s.clients.ListByDietitian(ctx, caller.ID, true, page, offset)
		if err != nil {
			return nil, apperr.Persistence("list clients", err)
		}
		for _, c := range clients {
			topics = append(topics, websocket.ClientTopic(c.ID))
		}
		if offset+page >= total || len(clients) == 0 {
			return topics, nil
		}
	}
}
