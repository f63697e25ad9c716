// Package trainer is the countdown/phase engine driving an exercise session:
// contract -> relax cycles across reps, a rest between sets, complete at the
// end. It knows nothing about storage; a finished session is handed to the
// OnComplete callback.
package trainer

import (
	"sync"
	"time"

	"github.com/2beens/kegeltrainer/internal/kegel"

	log "github.com/sirupsen/logrus"
)

type Phase string

const (
	PhaseReady    Phase = "ready"
	PhaseContract Phase = "contract"
	PhaseRelax    Phase = "relax"
	PhaseRest     Phase = "rest"
	PhaseComplete Phase = "complete"
)

// PhaseChange is emitted on every phase entry and on every countdown tick.
type PhaseChange struct {
	Phase    Phase
	TimeLeft int // seconds
	Set      int
	Rep      int
}

type TrainerParams struct {
	Settings kegel.Settings
	Audio    AudioCue
	Haptics  Haptics
	WakeLock WakeLock

	OnPhaseChange func(PhaseChange)
	OnComplete    func(kegel.Session)

	// TickInterval defaults to one second
	TickInterval time.Duration
}

type Trainer struct {
	mu       sync.Mutex
	settings kegel.Settings

	currentSet int
	currentRep int
	phase      Phase
	timeLeft   int
	running    bool
	paused     bool

	tickInterval time.Duration
	tickerStop   chan struct{}

	audio    AudioCue
	haptics  Haptics
	wakeLock WakeLock

	onPhaseChange func(PhaseChange)
	onComplete    func(kegel.Session)
}

func NewTrainer(params TrainerParams) *Trainer {
	if params.Audio == nil {
		params.Audio = NoopAudio{}
	}
	if params.Haptics == nil {
		params.Haptics = NoopHaptics{}
	}
	if params.WakeLock == nil {
		params.WakeLock = NoopWakeLock{}
	}
	if params.TickInterval <= 0 {
		params.TickInterval = time.Second
	}

	return &Trainer{
		settings:      params.Settings,
		currentSet:    1,
		currentRep:    1,
		phase:         PhaseReady,
		tickInterval:  params.TickInterval,
		audio:         params.Audio,
		haptics:       params.Haptics,
		wakeLock:      params.WakeLock,
		onPhaseChange: params.OnPhaseChange,
		onComplete:    params.OnComplete,
	}
}

// SetSettings replaces the training parameters. Takes effect on the next
// phase entry; a running countdown is not disturbed.
func (t *Trainer) SetSettings(settings kegel.Settings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings = settings
}

// Snapshot returns the current session state for display purposes.
func (t *Trainer) Snapshot() PhaseChange {
	t.mu.Lock()
	defer t.mu.Unlock()
	return PhaseChange{Phase: t.phase, TimeLeft: t.timeLeft, Set: t.currentSet, Rep: t.currentRep}
}

func (t *Trainer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Trainer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Start begins a fresh session, or resumes a paused one.
func (t *Trainer) Start() {
	t.mu.Lock()

	if t.paused {
		t.mu.Unlock()
		t.Resume()
		return
	}
	if t.running {
		t.mu.Unlock()
		return
	}

	if err := t.wakeLock.Request(); err != nil {
		log.Tracef("wake lock request failed: %s", err)
	}

	t.running = true
	t.phase = PhaseContract
	t.timeLeft = t.settings.ContractTime
	t.enterPhaseLocked()
	t.startTimerLocked()
	t.mu.Unlock()
}

// Pause freezes the countdown without altering phase or counters.
func (t *Trainer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.paused = true
	t.running = false
	t.stopTimerLocked()
}

// Resume continues a paused session from the preserved phase and time left.
func (t *Trainer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return
	}
	t.paused = false
	t.running = true
	t.startTimerLocked()
}

// Reset forces the ready state from any state, discarding progress.
func (t *Trainer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = false
	t.paused = false
	t.currentSet = 1
	t.currentRep = 1
	t.phase = PhaseReady
	t.timeLeft = 0
	t.stopTimerLocked()

	if err := t.wakeLock.Release(); err != nil {
		log.Tracef("wake lock release failed: %s", err)
	}

	t.emitLocked()
}

// Tick advances the countdown by one second and drives phase transitions.
// Called by the internal timer; exported so the engine can be driven
// deterministically.
func (t *Trainer) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}

	t.timeLeft--
	if t.timeLeft <= 0 {
		t.nextPhaseLocked()
		return
	}
	t.emitLocked()
}

// startTimerLocked (re)creates the countdown timer. Any previous timer is
// cancelled first - two live timers would double-advance phases.
func (t *Trainer) startTimerLocked() {
	t.stopTimerLocked()

	stop := make(chan struct{})
	t.tickerStop = stop

	go func() {
		ticker := time.NewTicker(t.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.Tick()
			case <-stop:
				return
			}
		}
	}()
}

func (t *Trainer) stopTimerLocked() {
	if t.tickerStop != nil {
		close(t.tickerStop)
		t.tickerStop = nil
	}
}

func (t *Trainer) nextPhaseLocked() {
	switch t.phase {
	case PhaseContract:
		t.phase = PhaseRelax
		t.timeLeft = t.settings.RelaxTime
	case PhaseRelax:
		t.currentRep++
		if t.currentRep > t.settings.RepsPerSet {
			t.currentRep = 1
			t.currentSet++
			if t.currentSet > t.settings.TotalSets {
				t.completeLocked()
				return
			}
			t.phase = PhaseRest
			t.timeLeft = t.settings.RestTime
		} else {
			t.phase = PhaseContract
			t.timeLeft = t.settings.ContractTime
		}
	case PhaseRest:
		t.phase = PhaseContract
		t.timeLeft = t.settings.ContractTime
	}

	t.enterPhaseLocked()
}

// enterPhaseLocked fires the per-phase side channels. They are best-effort:
// failures are logged and never stall the engine.
func (t *Trainer) enterPhaseLocked() {
	switch t.phase {
	case PhaseContract:
		if t.settings.SoundEnabled {
			if err := t.audio.Play("contract"); err != nil {
				log.Tracef("play contract cue: %s", err)
			}
		}
		if err := t.haptics.Vibrate(vibrateContract...); err != nil {
			log.Tracef("vibrate: %s", err)
		}
	case PhaseRelax:
		if t.settings.SoundEnabled {
			if err := t.audio.Play("relax"); err != nil {
				log.Tracef("play relax cue: %s", err)
			}
		}
		if err := t.haptics.Vibrate(vibrateRelax...); err != nil {
			log.Tracef("vibrate: %s", err)
		}
	}

	t.emitLocked()
}

func (t *Trainer) completeLocked() {
	t.running = false
	t.phase = PhaseComplete
	t.timeLeft = 0
	t.stopTimerLocked()

	if err := t.wakeLock.Release(); err != nil {
		log.Tracef("wake lock release failed: %s", err)
	}
	if err := t.haptics.Vibrate(vibrateComplete...); err != nil {
		log.Tracef("vibrate: %s", err)
	}

	t.emitLocked()

	session := kegel.Session{
		Date:         kegel.FormatDate(time.Now()),
		Sets:         t.settings.TotalSets,
		Reps:         t.settings.RepsPerSet,
		Duration:     kegel.ComputeDuration(t.settings),
		ContractTime: t.settings.ContractTime,
		RelaxTime:    t.settings.RelaxTime,
	}

	log.Debugf("session complete: %+v", session)

	if t.onComplete != nil {
		// session recording must never delay the engine
		go t.onComplete(session)
	}
}

func (t *Trainer) emitLocked() {
	if t.onPhaseChange == nil {
		return
	}
	t.onPhaseChange(PhaseChange{
		Phase:    t.phase,
		TimeLeft: t.timeLeft,
		Set:      t.currentSet,
		Rep:      t.currentRep,
	})
}
