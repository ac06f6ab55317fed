// Package license owns the school settings record and the activation
// workflow. Activation files are either plain settings JSON or the same JSON
// wrapped by the codec; both import interchangeably.
package license

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/yrlschool/yrl-school/internal/codec"
	"github.com/yrlschool/yrl-school/internal/schema"
	"github.com/yrlschool/yrl-school/internal/store"
)

// User-facing activation failures. The structured detail stays in the logs.
var (
	ErrFileTampered  = errors.New("activation file is invalid or has been tampered with")
	ErrFileCorrupted = errors.New("activation file is corrupted or has been modified")
	ErrFileNotJSON   = errors.New("activation file is not valid JSON")
	ErrFileFormat    = errors.New("invalid activation file format")
)

const dayFormat = "2006-01-02"

// Manager reads and writes school settings and answers activation queries.
type Manager struct {
	store *store.Adapter
	now   func() time.Time
}

// NewManager creates a manager over the given adapter.
func NewManager(st *store.Adapter) *Manager {
	return &Manager{store: st, now: time.Now}
}

// Get returns the stored settings, falling back to defaults when nothing
// valid is stored.
func (m *Manager) Get(ctx context.Context) schema.SchoolSettings {
	var s schema.SchoolSettings
	if !m.store.ReadJSON(ctx, store.KeySettings, &s) {
		return schema.DefaultSettings()
	}
	if err := schema.ValidateSettings(s); err != nil {
		log.Printf("license: stored settings invalid, using defaults: %v", err)
		return schema.DefaultSettings()
	}
	return s
}

// Save validates and persists settings. A shape mismatch here is a
// programmer error, not user input, so the ValidationError propagates as-is.
func (m *Manager) Save(ctx context.Context, s schema.SchoolSettings) error {
	if err := schema.ValidateSettings(s); err != nil {
		return err
	}
	m.store.WriteJSON(ctx, store.KeySettings, s)
	return nil
}

// ImportActivationFile decodes (when needed), validates and persists an
// activation file, stamping the activation time. The returned settings are
// what was persisted.
func (m *Manager) ImportActivationFile(ctx context.Context, content string) (schema.SchoolSettings, error) {
	content = strings.TrimSpace(content)

	if codec.IsEncoded(content) {
		decoded, err := codec.Decode(content)
		switch {
		case errors.Is(err, codec.ErrIntegrity):
			return schema.SchoolSettings{}, ErrFileCorrupted
		case err != nil:
			return schema.SchoolSettings{}, ErrFileTampered
		}
		content = decoded
	}

	var s schema.SchoolSettings
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return schema.SchoolSettings{}, ErrFileNotJSON
	}
	if s.SchoolYear == "" {
		s.SchoolYear = schema.DefaultSchoolYear
	}
	s.ActivatedAt = m.now().Format(time.RFC3339)

	if err := schema.ValidateSettings(s); err != nil {
		log.Printf("license: activation file rejected: %v", err)
		return schema.SchoolSettings{}, ErrFileFormat
	}
	if err := m.Save(ctx, s); err != nil {
		return schema.SchoolSettings{}, err
	}
	return s, nil
}

const keyChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateActivationFile is the admin-side counterpart to import: it stamps a
// synthesized license key and encodes the settings. The running app never
// calls this for its own activation check.
func GenerateActivationFile(s schema.SchoolSettings) (string, error) {
	if err := schema.ValidateSettings(s); err != nil {
		return "", err
	}
	s.ActivatedAt = ""
	s.LicenseKey = newLicenseKey(time.Now())

	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return codec.Encode(string(raw)), nil
}

func newLicenseKey(at time.Time) string {
	suffix := make([]byte, 8)
	for i := range suffix {
		suffix[i] = keyChars[rand.Intn(len(keyChars))]
	}
	return "YRL-" + strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36)) + "-" + string(suffix)
}

// IsExpired reports whether an expiry date is set and is strictly before
// today, compared at day granularity. An unset or unparseable date never
// expires.
func (m *Manager) IsExpired(ctx context.Context) bool {
	days, ok := m.DaysUntilExpiry(ctx)
	return ok && days < 0
}

// DaysUntilExpiry returns whole days until the expiry date: 0 on the expiry
// day itself, negative after. The second return is false when no expiry date
// is set. IsExpired stays the authoritative past-due check.
func (m *Manager) DaysUntilExpiry(ctx context.Context) (int, bool) {
	s := m.Get(ctx)
	if s.ExpiryDate == "" {
		return 0, false
	}
	expiry, err := time.ParseInLocation(dayFormat, s.ExpiryDate, time.Local)
	if err != nil {
		log.Printf("license: unparseable expiry date %q", s.ExpiryDate)
		return 0, false
	}
	now := m.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	// Round so a DST hour between the two midnights cannot skew the count.
	return int(math.Round(expiry.Sub(today).Hours() / 24)), true
}

// IsActivated reports whether the three identity fields are set and the
// license has not expired.
func (m *Manager) IsActivated(ctx context.Context) bool {
	return m.HasActivationData(ctx) && !m.IsExpired(ctx)
}

// HasActivationData reports whether the identity fields are set, regardless
// of expiry. The UI uses it to decide whether expiry warnings apply at all.
func (m *Manager) HasActivationData(ctx context.Context) bool {
	s := m.Get(ctx)
	return s.SchoolName != "" && s.Wilaya != "" && s.Commune != ""
}
