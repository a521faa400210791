package workflow

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/kozaktomas/photo-framer/internal/constants"
	"github.com/kozaktomas/photo-framer/internal/detector"
	"github.com/kozaktomas/photo-framer/internal/editor"
	"github.com/kozaktomas/photo-framer/internal/facecheck"
	"github.com/kozaktomas/photo-framer/internal/imagesource"
	"github.com/kozaktomas/photo-framer/internal/metrics"
	"github.com/sirupsen/logrus"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoImage is returned when an operation needs an image that was never selected.
	ErrNoImage = errors.New("no image selected")
)

// Options configures a Manager.
type Options struct {
	Detector      detector.Detector
	Policy        facecheck.Policy
	Frame         facecheck.Frame
	EditorSize    int
	DebounceDelay time.Duration
	SessionTTL    time.Duration
	Metrics       *metrics.Collectors
	Logger        logrus.FieldLogger
}

// Manager owns all editing sessions.
type Manager struct {
	opts     Options
	log      logrus.FieldLogger
	sessions map[string]*Session
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager creates a manager and starts expiring idle sessions when a TTL is set.
func NewManager(opts Options) *Manager {
	if opts.Policy == (facecheck.Policy{}) {
		opts.Policy = facecheck.DefaultPolicy()
	}
	if opts.Frame == (facecheck.Frame{}) {
		opts.Frame = facecheck.Frame{Width: 250, Height: 250}
	}
	if opts.EditorSize <= 0 {
		opts.EditorSize = opts.Frame.Width
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	m := &Manager{
		opts:     opts,
		log:      log.WithField("component", "workflow"),
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	if opts.SessionTTL > 0 {
		m.wg.Add(1)
		go m.cleanupLoop()
	}
	return m
}

// Create opens a new session in the idle state.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.opts.DebounceDelay)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.opts.Metrics.SessionOpened()
	m.log.WithField("session", s.ID).Debug("session created")
	return s
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close drops a session, cancelling its pending work.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.close()
	m.opts.Metrics.SessionClosed()
	m.log.WithField("session", id).Debug("session closed")
	return nil
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SelectImage sets a new source image and evaluates it right away. name is the
// uploaded file name, kept for naming downloads.
func (m *Manager) SelectImage(ctx context.Context, id string, img image.Image, name string) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	if img == nil || img.Bounds().Empty() {
		return Snapshot{}, imagesource.ErrEmptyImage
	}

	pos, err := editor.SuggestPosition(ctx, img)
	if err != nil {
		m.log.WithError(err).WithField("session", id).Warn("Smart position failed, using defaults")
		pos = editor.DefaultState()
	}

	gen, err := s.selectImage(img, name, pos)
	if err != nil {
		return Snapshot{}, err
	}
	s.publish()

	runCtx, cancel := s.debouncer.Preempt(ctx)
	defer cancel()
	m.evaluate(runCtx, s, gen)
	return s.Snapshot(), nil
}

// Adjust stores new editor values and schedules a debounced evaluation.
func (m *Manager) Adjust(id string, st editor.State) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	gen, err := s.adjust(st)
	if err != nil {
		return Snapshot{}, err
	}
	s.debouncer.Trigger(s.ctx, func(ctx context.Context) {
		m.evaluate(ctx, s, gen)
	})
	return s.Snapshot(), nil
}

// Save renders the framed photo, stores it, closes the modal and evaluates the
// result immediately.
func (m *Manager) Save(ctx context.Context, id string) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	gen, img, st, err := s.bump()
	if err != nil {
		return Snapshot{}, err
	}

	runCtx, cancel := s.debouncer.Preempt(ctx)
	defer cancel()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, constants.SaveTimeout)
	defer cancelTimeout()

	framed, err := m.renderFrame(img, st)
	if err != nil {
		return Snapshot{}, err
	}
	dataURL, err := imagesource.EncodeDataURL(framed)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encoding framed image: %w", err)
	}
	if s.markSaved(gen, dataURL) {
		s.publish()
	}

	m.evaluate(runCtx, s, gen)
	return s.Snapshot(), nil
}

// Frame renders the current view at the output frame size.
func (m *Manager) Frame(id string) (image.Image, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.stateMu.Lock()
	img, st := s.img, s.editor
	s.stateMu.Unlock()
	if img == nil {
		return nil, ErrNoImage
	}
	return m.renderFrame(img, st)
}

func (m *Manager) renderFrame(img image.Image, st editor.State) (image.Image, error) {
	w, h := m.opts.Frame.Width, m.opts.Frame.Height
	out, err := editor.Render(img, st, max(w, h))
	if err != nil {
		return nil, err
	}
	if w != h {
		out = imaging.Fill(out, w, h, imaging.Center, imaging.Lanczos)
	}
	return out, nil
}

// evaluate runs one render, detect and policy pass for generation gen.
func (m *Manager) evaluate(ctx context.Context, s *Session, gen uint64) {
	log := m.log.WithField("session", s.ID)

	img, st, ok := s.inputs(gen)
	if !ok {
		return
	}
	view, err := editor.Render(img, st, m.opts.EditorSize)
	if err != nil {
		log.WithError(err).Warn("Render failed, keeping previous result")
		return
	}

	det := m.opts.Detector
	next := StateEvaluating
	if !det.Loaded() {
		next = StateModelLoading
	}
	prior, ok, err := s.begin(gen, next)
	if err != nil {
		log.WithError(err).Error("Cannot start evaluation")
		return
	}
	if !ok {
		return
	}
	s.publish()

	if next == StateModelLoading {
		if err := det.Load(ctx); err != nil {
			m.failed(log, s, gen, err)
			return
		}
		if ok, err := s.advance(gen, StateEvaluating); !ok {
			if err != nil {
				log.WithError(err).Error("Cannot start evaluation")
			}
			return
		}
		s.publish()
	}

	start := time.Now()
	boxes, err := det.Detect(ctx, view)
	m.opts.Metrics.ObserveDetection(det.Name(), time.Since(start), err)
	if err != nil {
		m.failed(log, s, gen, err)
		return
	}

	scaled := facecheck.ToFrame(boxes, m.opts.EditorSize, m.opts.Frame)
	verdict, err := m.opts.Policy.Evaluate(scaled, m.opts.Frame)
	if err != nil {
		log.WithError(err).Warn("Evaluation rejected input, keeping previous result")
		if s.restore(gen, prior) {
			s.publish()
		}
		return
	}

	if !s.finish(gen, verdict) {
		log.Debug("Dropping superseded evaluation result")
		return
	}
	m.opts.Metrics.ObserveEvaluation(string(verdict.FaceCount), string(verdict.Centered), string(verdict.Size))
	log.WithFields(logrus.Fields{
		"faces":    verdict.FaceCount,
		"centered": verdict.Centered,
		"size":     verdict.Size,
	}).Debug("Evaluation finished")
	s.publish()
}

func (m *Manager) failed(log logrus.FieldLogger, s *Session, gen uint64, err error) {
	if errors.Is(err, context.Canceled) && s.ctx.Err() != nil {
		return
	}
	if !s.fail(gen) {
		return
	}
	log.WithError(err).Error("Face detection failed")
	s.publish()
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(constants.SessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := m.expire(time.Now()); n > 0 {
				m.log.WithField("count", n).Info("Expired idle sessions")
			}
		case <-m.stop:
			return
		}
	}
}

// expire closes sessions idle since before now minus the TTL.
func (m *Manager) expire(now time.Time) int {
	cutoff := now.Add(-m.opts.SessionTTL)

	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if s.lastActivity().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	closed := 0
	for _, id := range stale {
		if m.Close(id) == nil {
			closed++
		}
	}
	return closed
}

// Stop closes every session and stops the cleanup goroutine.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()

		m.mu.RLock()
		ids := make([]string, 0, len(m.sessions))
		for id := range m.sessions {
			ids = append(ids, id)
		}
		m.mu.RUnlock()
		for _, id := range ids {
			_ = m.Close(id)
		}
	})
}
