package flatness

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/san-kum/flatsim/internal/field"
)

// Session is the host-facing handle: initialize from a file, then query once
// per tick. Init may be called again while queries are running; the new
// engine is built without holding the lock and swapped in atomically. A
// failed Init keeps the previous engine.
type Session struct {
	mu     sync.RWMutex
	engine *Engine
	opts   []Option
	logger *log.Logger
}

// NewSession returns an uninitialized session. opts are applied to every
// engine it builds.
func NewSession(opts ...Option) *Session {
	s := &Session{opts: opts, logger: log.Default()}
	probe := &Engine{}
	for _, opt := range opts {
		opt(probe)
	}
	if probe.logger != nil {
		s.logger = probe.logger
	}
	return s
}

// Init loads the field at path and installs an engine for the vehicle.
func (s *Session) Init(path string, mass float64, inertia [3][3]float64) error {
	eng, err := Init(path, mass, inertia, s.opts...)
	if err != nil {
		s.logger.Error("field initialization failed", "path", path, "err", err)
		return err
	}
	s.install(eng)
	s.logger.Info("field initialized", "path", path, "components", eng.Field().Dim())
	return nil
}

// InitField installs an engine for an already parsed field.
func (s *Session) InitField(f *field.Field, p VehicleParameters) error {
	eng, err := NewEngine(f, p, s.opts...)
	if err != nil {
		return err
	}
	s.install(eng)
	return nil
}

func (s *Session) install(eng *Engine) {
	s.mu.Lock()
	s.engine = eng
	s.mu.Unlock()
}

// Engine returns the current engine, nil before a successful Init.
func (s *Session) Engine() *Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

func (s *Session) Ready() bool { return s.Engine() != nil }

// Update queries the current engine. It fails with ErrConfig before Init.
func (s *Session) Update(x, y, z, yaw float64) (InputRecord, StateRecord, error) {
	eng := s.Engine()
	if eng == nil {
		return InputRecord{}, StateRecord{}, &ConfigError{Reason: "update called before init"}
	}
	return eng.Update(x, y, z, yaw)
}
