package client

import (
	"sync"

	"hairstudio/internal/domain"
)

// Modal is a blocking surface that suspends automatic generation while open.
type Modal string

const (
	ModalSignIn  Modal = "sign_in"
	ModalPricing Modal = "pricing"
)

// DefaultColorID is the color selected when a session starts.
const DefaultColorID = "black"

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	StyleID     string
	ColorID     string
	Gender      domain.Gender
	Angle       domain.Angle
	Source      string
	HairOnly    bool
	User        *domain.UserEntitlement
	SignInOpen  bool
	PricingOpen bool
	Err         error
	Epoch       uint64
}

// Key returns the generation key for the current selection. ok is false when
// no style is selected or there is neither a photo nor hair-only mode.
func (s Snapshot) Key() (domain.GenerationKey, bool) {
	if s.StyleID == "" || (s.Source == "" && !s.HairOnly) {
		return domain.GenerationKey{}, false
	}
	return domain.GenerationKey{StyleID: s.StyleID, ColorID: s.ColorID, Angle: s.Angle}, true
}

// Blocked reports whether a modal that suspends generation is open.
func (s Snapshot) Blocked() bool {
	return s.SignInOpen || s.PricingOpen
}

// Session is the state of one browsing session. Every mutation publishes an
// event on the bus after the lock is released.
type Session struct {
	mu    sync.Mutex
	bus   *Bus
	cache *Cache

	styleID  string
	colorID  string
	gender   domain.Gender
	angle    domain.Angle
	source   string
	hairOnly bool

	user        *domain.UserEntitlement
	signInOpen  bool
	pricingOpen bool
	err         error

	// epoch changes whenever cached results stop being valid for the session.
	epoch uint64
}

func NewSession(bus *Bus) *Session {
	if bus == nil {
		bus = NewBus()
	}
	return &Session{
		bus:     bus,
		cache:   NewCache(),
		colorID: DefaultColorID,
		gender:  domain.GenderFemale,
		angle:   domain.AngleFront,
	}
}

func (s *Session) Bus() *Bus { return s.bus }

func (s *Session) Cache() *Cache { return s.cache }

// update runs fn under the lock and publishes whatever events it returns.
func (s *Session) update(fn func() []Event) {
	s.mu.Lock()
	events := fn()
	s.mu.Unlock()
	for _, ev := range events {
		s.bus.Publish(ev)
	}
}

// invalidate drops every cached preview. Callers hold the lock.
func (s *Session) invalidate() {
	s.cache.Flush()
	s.epoch++
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		StyleID:     s.styleID,
		ColorID:     s.colorID,
		Gender:      s.gender,
		Angle:       s.angle,
		Source:      s.source,
		HairOnly:    s.hairOnly,
		User:        s.user.Clone(),
		SignInOpen:  s.signInOpen,
		PricingOpen: s.pricingOpen,
		Err:         s.err,
		Epoch:       s.epoch,
	}
}

// SetSourceImage starts over with a new photo.
func (s *Session) SetSourceImage(dataURL string) {
	s.update(func() []Event {
		s.source = dataURL
		s.hairOnly = false
		s.styleID = ""
		s.angle = domain.AngleFront
		s.err = nil
		s.invalidate()
		return []Event{{Kind: EventSourceChanged}}
	})
}

// SkipUpload switches to hair-only mode, rendering styles on a synthesized model.
func (s *Session) SkipUpload() {
	s.update(func() []Event {
		s.source = ""
		s.hairOnly = true
		s.styleID = ""
		s.angle = domain.AngleFront
		s.err = nil
		s.invalidate()
		return []Event{{Kind: EventSourceChanged}}
	})
}

// ResetPhoto returns to the upload step.
func (s *Session) ResetPhoto() {
	s.update(func() []Event {
		s.source = ""
		s.hairOnly = false
		s.styleID = ""
		s.err = nil
		s.invalidate()
		return []Event{{Kind: EventReset}}
	})
}

// SelectStyle is a no-op when id is already selected.
func (s *Session) SelectStyle(id string) {
	s.update(func() []Event {
		if s.styleID == id {
			return nil
		}
		s.styleID = id
		s.angle = domain.AngleFront
		return []Event{{Kind: EventSelectionChanged}}
	})
}

// SelectColor is a no-op when id is already selected.
func (s *Session) SelectColor(id string) {
	s.update(func() []Event {
		if s.colorID == id {
			return nil
		}
		s.colorID = id
		if s.styleID != "" {
			s.angle = domain.AngleFront
		}
		return []Event{{Kind: EventSelectionChanged}}
	})
}

// SelectGender switches catalogues, so the selected style is cleared.
func (s *Session) SelectGender(g domain.Gender) {
	s.update(func() []Event {
		if s.gender == g && s.styleID == "" {
			return nil
		}
		s.gender = g
		s.styleID = ""
		return []Event{{Kind: EventSelectionChanged}}
	})
}

func (s *Session) SetAngle(a domain.Angle) {
	s.update(func() []Event {
		if s.angle == a {
			return nil
		}
		s.angle = a
		return []Event{{Kind: EventSelectionChanged}}
	})
}

// SignIn installs the user mirror and closes the sign-in modal.
func (s *Session) SignIn(user domain.UserEntitlement) {
	s.update(func() []Event {
		s.user = &user
		events := []Event{{Kind: EventUserChanged}}
		if s.signInOpen {
			s.signInOpen = false
			events = append(events, Event{Kind: EventModalChanged})
		}
		return events
	})
}

// RefreshUser replaces the mirror with the server's view without touching
// the cache. It is ignored when nobody is signed in or the id differs.
func (s *Session) RefreshUser(user domain.UserEntitlement) {
	s.update(func() []Event {
		if s.user == nil || s.user.ID != user.ID {
			return nil
		}
		s.user = &user
		return []Event{{Kind: EventUserChanged}}
	})
}

func (s *Session) SignOut() {
	s.update(func() []Event {
		s.user = nil
		s.invalidate()
		return []Event{{Kind: EventUserChanged}}
	})
}

func (s *Session) OpenModal(m Modal) { s.setModal(m, true) }

func (s *Session) CloseModal(m Modal) { s.setModal(m, false) }

func (s *Session) setModal(m Modal, open bool) {
	s.update(func() []Event {
		var flag *bool
		switch m {
		case ModalSignIn:
			flag = &s.signInOpen
		case ModalPricing:
			flag = &s.pricingOpen
		default:
			return nil
		}
		if *flag == open {
			return nil
		}
		*flag = open
		return []Event{{Kind: EventModalChanged}}
	})
}

func (s *Session) User() *domain.UserEntitlement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) clearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

// CurrentImage returns the cached preview for the current selection.
func (s *Session) CurrentImage() (string, bool) {
	key, ok := s.Snapshot().Key()
	if !ok {
		return "", false
	}
	return s.cache.Get(key)
}

// complete records a successful generation started in epoch. Results from an
// older epoch are dropped without charging. It reports whether the result
// was kept.
func (s *Session) complete(epoch uint64, key domain.GenerationKey, url string, charge func(*domain.UserEntitlement)) bool {
	var kept bool
	s.update(func() []Event {
		if epoch != s.epoch {
			return []Event{{Kind: EventGenerationFinished}}
		}
		kept = s.cache.Add(key, url)
		if kept && s.user != nil && charge != nil {
			charge(s.user)
		}
		s.err = nil
		return []Event{{Kind: EventGenerationFinished}}
	})
	return kept
}

// fail surfaces err unless the session moved to a new epoch meanwhile.
func (s *Session) fail(epoch uint64, err error) {
	s.update(func() []Event {
		if epoch == s.epoch {
			s.err = err
		}
		return []Event{{Kind: EventGenerationFailed, Err: err}}
	})
}
