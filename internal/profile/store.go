package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("profile: not found")
	ErrLastProfile = errors.New("profile: cannot delete the last profile")

	// ErrInternal is returned by every call once the store's state can no
	// longer be trusted.
	ErrInternal = errors.New("profile: configuration state corrupted - internal error")
)

// ConfigWriter writes the host-wide .wslconfig.
type ConfigWriter interface {
	WriteGlobalConfig(ctx context.Context, text string) error
}

// Store owns the AppConfig aggregate. Readers share access, writers are
// exclusive, and only copies ever leave the store. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	cfg      AppConfig
	poisoned atomic.Bool
	log      *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

// NewStore creates an empty store. Call InitDefaults or Load before use.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		cfg: AppConfig{Theme: ThemeDark},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// write runs fn under the exclusive lock. A panic in fn poisons the store.
func (s *Store) write(fn func(cfg *AppConfig) error) (err error) {
	if s.poisoned.Load() {
		return ErrInternal
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverInto(&err)
	return fn(&s.cfg)
}

// read runs fn under the shared lock. A panic in fn poisons the store.
func (s *Store) read(fn func(cfg *AppConfig) error) (err error) {
	if s.poisoned.Load() {
		return ErrInternal
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	defer s.recoverInto(&err)
	return fn(&s.cfg)
}

func (s *Store) recoverInto(err *error) {
	if r := recover(); r != nil {
		s.poisoned.Store(true)
		s.log.Error("profile store poisoned", zap.Any("panic", r))
		*err = fmt.Errorf("%w: %v", ErrInternal, r)
	}
}

// InitDefaults installs the built-in profiles when the store has none.
func (s *Store) InitDefaults() error {
	return s.write(func(cfg *AppConfig) error {
		if len(cfg.Profiles) > 0 {
			return nil
		}
		cfg.Profiles = DefaultProfiles()
		cfg.DefaultProfileID = BuiltinDefaultID
		return nil
	})
}

// Load replaces the whole aggregate with cfg.
func (s *Store) Load(cfg AppConfig) error {
	cfg = cfg.clone()
	if cfg.Theme == "" {
		cfg.Theme = ThemeDark
	}
	return s.write(func(c *AppConfig) error {
		*c = cfg
		return nil
	})
}

// Snapshot returns a copy of the aggregate for persistence.
func (s *Store) Snapshot() (AppConfig, error) {
	var out AppConfig
	err := s.read(func(cfg *AppConfig) error {
		out = cfg.clone()
		return nil
	})
	return out, err
}

// ListProfiles returns every profile in insertion order.
func (s *Store) ListProfiles() ([]Profile, error) {
	var out []Profile
	err := s.read(func(cfg *AppConfig) error {
		out = make([]Profile, len(cfg.Profiles))
		for i, p := range cfg.Profiles {
			out[i] = p.clone()
		}
		return nil
	})
	return out, err
}

// GetProfile returns the profile with the given id.
func (s *Store) GetProfile(id string) (Profile, error) {
	var out Profile
	err := s.read(func(cfg *AppConfig) error {
		i := profileIndex(cfg, id)
		if i < 0 {
			return fmt.Errorf("%w: profile %q", ErrNotFound, id)
		}
		out = cfg.Profiles[i].clone()
		return nil
	})
	return out, err
}

// SaveProfile replaces the profile with p's id, or appends p.
func (s *Store) SaveProfile(p Profile) error {
	p = p.clone()
	return s.write(func(cfg *AppConfig) error {
		if i := profileIndex(cfg, p.ID); i >= 0 {
			cfg.Profiles[i] = p
			return nil
		}
		cfg.Profiles = append(cfg.Profiles, p)
		return nil
	})
}

// DeleteProfile removes a profile. A store holding a single profile
// refuses with ErrLastProfile whatever id is; otherwise an unknown id is a
// no-op. A default pointing at the removed profile moves to the first
// remaining one; a current selection pointing at it is cleared.
func (s *Store) DeleteProfile(id string) error {
	return s.write(func(cfg *AppConfig) error {
		if len(cfg.Profiles) <= 1 {
			return ErrLastProfile
		}
		i := profileIndex(cfg, id)
		if i < 0 {
			return nil
		}

		cfg.Profiles = append(cfg.Profiles[:i:i], cfg.Profiles[i+1:]...)
		if cfg.DefaultProfileID == id {
			cfg.DefaultProfileID = ""
			if len(cfg.Profiles) > 0 {
				cfg.DefaultProfileID = cfg.Profiles[0].ID
			}
		}
		if cfg.CurrentProfileID == id {
			cfg.CurrentProfileID = ""
		}
		return nil
	})
}

// SetDefaultProfile selects the default profile. id must exist.
func (s *Store) SetDefaultProfile(id string) error {
	return s.write(func(cfg *AppConfig) error {
		if profileIndex(cfg, id) < 0 {
			return fmt.Errorf("%w: profile %q", ErrNotFound, id)
		}
		cfg.DefaultProfileID = id
		return nil
	})
}

// SetCurrentProfile records id as the active profile. Unlike
// SetDefaultProfile it does not check that id exists.
func (s *Store) SetCurrentProfile(id string) error {
	return s.write(func(cfg *AppConfig) error {
		cfg.CurrentProfileID = id
		return nil
	})
}

// CurrentProfile resolves the current profile, falling back to the
// default. ErrNotFound means neither is set or resolvable.
func (s *Store) CurrentProfile() (Profile, error) {
	var out Profile
	err := s.read(func(cfg *AppConfig) error {
		id := cfg.CurrentProfileID
		if id == "" {
			id = cfg.DefaultProfileID
		}
		if id == "" {
			return fmt.Errorf("%w: no current profile", ErrNotFound)
		}
		i := profileIndex(cfg, id)
		if i < 0 {
			return fmt.Errorf("%w: profile %q", ErrNotFound, id)
		}
		out = cfg.Profiles[i].clone()
		return nil
	})
	return out, err
}

// DefaultProfileID returns the default profile id, or "" if unset.
func (s *Store) DefaultProfileID() (string, error) {
	var id string
	err := s.read(func(cfg *AppConfig) error {
		id = cfg.DefaultProfileID
		return nil
	})
	return id, err
}

// ApplyProfile writes the profile's .wslconfig through w and, only once
// that succeeds, makes it current. The write happens without holding the
// store's lock. The returned warnings come from validating the rendered
// config and never block the write.
func (s *Store) ApplyProfile(ctx context.Context, id string, w ConfigWriter) ([]string, error) {
	p, err := s.GetProfile(id)
	if err != nil {
		return nil, err
	}

	conf := p.WSLConfig()
	warnings := conf.Validate()
	if err := w.WriteGlobalConfig(ctx, conf.Render()); err != nil {
		return warnings, fmt.Errorf("apply profile %s: %w", id, err)
	}
	if err := s.SetCurrentProfile(id); err != nil {
		return warnings, err
	}
	s.log.Info("profile applied", zap.String("profile", id), zap.Strings("warnings", warnings))
	return warnings, nil
}

// ListRules returns every rule in insertion order.
func (s *Store) ListRules() ([]Rule, error) {
	var out []Rule
	err := s.read(func(cfg *AppConfig) error {
		out = append([]Rule(nil), cfg.Rules...)
		return nil
	})
	return out, err
}

// GetRule returns the rule with the given id.
func (s *Store) GetRule(id string) (Rule, error) {
	var out Rule
	err := s.read(func(cfg *AppConfig) error {
		i := ruleIndex(cfg, id)
		if i < 0 {
			return fmt.Errorf("%w: rule %q", ErrNotFound, id)
		}
		out = cfg.Rules[i]
		return nil
	})
	return out, err
}

// SaveRule replaces the rule with r's id, or appends r.
func (s *Store) SaveRule(r Rule) error {
	return s.write(func(cfg *AppConfig) error {
		if i := ruleIndex(cfg, r.ID); i >= 0 {
			cfg.Rules[i] = r
			return nil
		}
		cfg.Rules = append(cfg.Rules, r)
		return nil
	})
}

// DeleteRule removes a rule. Removing an unknown id is not an error.
func (s *Store) DeleteRule(id string) error {
	return s.write(func(cfg *AppConfig) error {
		if i := ruleIndex(cfg, id); i >= 0 {
			cfg.Rules = append(cfg.Rules[:i:i], cfg.Rules[i+1:]...)
		}
		return nil
	})
}

// ToggleRule flips a rule's enabled flag and returns the new value.
func (s *Store) ToggleRule(id string) (bool, error) {
	var enabled bool
	err := s.write(func(cfg *AppConfig) error {
		i := ruleIndex(cfg, id)
		if i < 0 {
			return fmt.Errorf("%w: rule %q", ErrNotFound, id)
		}
		cfg.Rules[i].Enabled = !cfg.Rules[i].Enabled
		enabled = cfg.Rules[i].Enabled
		return nil
	})
	return enabled, err
}

func profileIndex(cfg *AppConfig, id string) int {
	for i, p := range cfg.Profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func ruleIndex(cfg *AppConfig, id string) int {
	for i, r := range cfg.Rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}
