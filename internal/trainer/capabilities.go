package trainer

import "time"

// Device capabilities (sound, vibration, stay-awake) are optional ports:
// absence is a no-op, and failures are never fatal to the phase engine.

type AudioCue interface {
	Play(cue string) error
}

type Haptics interface {
	Vibrate(pattern ...time.Duration) error
}

type WakeLock interface {
	Request() error
	Release() error
}

type Notifier interface {
	Notify(title, body string) error
}

// vibration patterns per phase
var (
	vibrateContract = []time.Duration{200 * time.Millisecond}
	vibrateRelax    = []time.Duration{100 * time.Millisecond}
	vibrateComplete = []time.Duration{200 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}
)

type NoopAudio struct{}

func (NoopAudio) Play(string) error { return nil }

type NoopHaptics struct{}

func (NoopHaptics) Vibrate(...time.Duration) error { return nil }

type NoopWakeLock struct{}

func (NoopWakeLock) Request() error { return nil }
func (NoopWakeLock) Release() error { return nil }

type NoopNotifier struct{}

func (NoopNotifier) Notify(string, string) error { return nil }
