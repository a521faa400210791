package workflow

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/kozaktomas/photo-framer/internal/constants"
	"github.com/kozaktomas/photo-framer/internal/editor"
	"github.com/kozaktomas/photo-framer/internal/facecheck"
)

// Session is one user's photo editing flow.
type Session struct {
	EventBroadcaster

	ID        string
	CreatedAt time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	debouncer *Debouncer

	stateMu        sync.Mutex
	state          State
	modalOpen      bool
	img            image.Image
	sourceName     string
	editor         editor.State
	primaryMessage string
	sizeMessage    string
	verdict        *facecheck.Verdict
	savedImage     string
	generation     uint64
	updatedAt      time.Time
}

// Snapshot is a point-in-time copy of a session, safe to serialize.
type Snapshot struct {
	ID          string             `json:"id"`
	State       State              `json:"state"`
	ModalOpen   bool               `json:"modal_open"`
	HasImage    bool               `json:"has_image"`
	SourceName  string             `json:"source_name,omitempty"`
	Editor      editor.State       `json:"editor"`
	Message     string             `json:"message"`
	SizeMessage string             `json:"size_message"`
	Verdict     *facecheck.Verdict `json:"verdict,omitempty"`
	Accepted    bool               `json:"accepted"`
	SavedImage  string             `json:"saved_image,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func newSession(id string, debounceDelay time.Duration) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	return &Session{
		ID:             id,
		CreatedAt:      now,
		ctx:            ctx,
		cancel:         cancel,
		debouncer:      NewDebouncer(debounceDelay),
		state:          StateIdle,
		modalOpen:      true,
		editor:         editor.DefaultState(),
		primaryMessage: constants.MsgUploadPrompt,
		updatedAt:      now,
	}
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:          s.ID,
		State:       s.state,
		ModalOpen:   s.modalOpen,
		HasImage:    s.img != nil,
		SourceName:  s.sourceName,
		Editor:      s.editor,
		Message:     s.primaryMessage,
		SizeMessage: s.sizeMessage,
		SavedImage:  s.savedImage,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.updatedAt,
	}
	if s.verdict != nil {
		v := *s.verdict
		snap.Verdict = &v
		snap.Accepted = v.Accepted()
	}
	return snap
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Session) lastActivity() time.Time {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.updatedAt
}

// publish sends the current snapshot to listeners.
func (s *Session) publish() {
	snap := s.Snapshot()
	s.SendEvent(Event{Type: EventState, Message: snap.Message, Data: snap})
}

// selectImage stores a newly chosen image and supersedes any running evaluation.
func (s *Session) selectImage(img image.Image, name string, pos editor.State) (uint64, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if err := checkTransition(s.state, StateImageSelected); err != nil {
		return 0, err
	}
	s.state = StateImageSelected
	s.img = img
	s.sourceName = name
	s.editor = pos
	s.modalOpen = true
	s.verdict = nil
	s.generation++
	s.updatedAt = time.Now()
	return s.generation, nil
}

// adjust records new editor values and returns the generation to evaluate.
func (s *Session) adjust(st editor.State) (uint64, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.img == nil {
		return 0, ErrNoImage
	}
	s.editor = st.Normalize()
	s.generation++
	s.updatedAt = time.Now()
	return s.generation, nil
}

// bump supersedes running work without changing the editor values.
func (s *Session) bump() (uint64, image.Image, editor.State, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.img == nil {
		return 0, nil, editor.State{}, ErrNoImage
	}
	s.generation++
	s.updatedAt = time.Now()
	return s.generation, s.img, s.editor, nil
}

// inputs returns the image and editor values for gen, or false if gen is stale.
func (s *Session) inputs(gen uint64) (image.Image, editor.State, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if gen != s.generation || s.img == nil {
		return nil, editor.State{}, false
	}
	return s.img, s.editor, true
}

// priorView is what an aborted evaluation restores.
type priorView struct {
	state          State
	primaryMessage string
	sizeMessage    string
	verdict        *facecheck.Verdict
}

// begin shows the processing message and enters next. It returns false if gen is stale.
func (s *Session) begin(gen uint64, next State) (priorView, bool, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if gen != s.generation {
		return priorView{}, false, nil
	}
	prior := priorView{
		state:          s.state,
		primaryMessage: s.primaryMessage,
		sizeMessage:    s.sizeMessage,
		verdict:        s.verdict,
	}
	if err := checkTransition(s.state, next); err != nil {
		return prior, false, err
	}
	s.state = next
	s.primaryMessage = constants.MsgProcessing
	s.sizeMessage = ""
	s.updatedAt = time.Now()
	return prior, true, nil
}

// advance moves a current run to next. It returns false if gen is stale.
func (s *Session) advance(gen uint64, next State) (bool, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if gen != s.generation {
		return false, nil
	}
	if err := checkTransition(s.state, next); err != nil {
		return false, err
	}
	s.state = next
	s.updatedAt = time.Now()
	return true, nil
}

// finish applies a verdict. Stale results are dropped.
func (s *Session) finish(gen uint64, v facecheck.Verdict) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if gen != s.generation || checkTransition(s.state, StateEvaluated) != nil {
		return false
	}
	s.state = StateEvaluated
	s.verdict = &v
	s.primaryMessage = v.PrimaryMessage
	s.sizeMessage = v.SizeMessage
	s.updatedAt = time.Now()
	return true
}

// fail reports a processing failure for the current run.
func (s *Session) fail(gen uint64) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if gen != s.generation || checkTransition(s.state, StateEvaluated) != nil {
		return false
	}
	s.state = StateEvaluated
	s.verdict = nil
	s.primaryMessage = constants.MsgProcessingFailed
	s.sizeMessage = ""
	s.updatedAt = time.Now()
	return true
}

// restore puts back the view from before an aborted run.
func (s *Session) restore(gen uint64, prior priorView) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if gen != s.generation {
		return false
	}
	s.state = prior.state
	s.primaryMessage = prior.primaryMessage
	s.sizeMessage = prior.sizeMessage
	s.verdict = prior.verdict
	s.updatedAt = time.Now()
	return true
}

// markSaved stores the framed image and closes the editor modal.
func (s *Session) markSaved(gen uint64, dataURL string) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if gen != s.generation {
		return false
	}
	s.savedImage = dataURL
	s.modalOpen = false
	s.updatedAt = time.Now()
	return true
}

// close stops pending work and disconnects listeners.
func (s *Session) close() {
	s.debouncer.Stop()
	s.cancel()
	s.closeListeners(Event{Type: EventClosed, Message: "session closed"})
}
