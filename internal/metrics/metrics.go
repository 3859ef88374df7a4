// Package metrics exposes conversation counters derived from the lifecycle
// event stream.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/malhajar17/modcast/internal/conversation"
)

type Metrics struct {
	Turns       *prometheus.CounterVec
	AudioFrames prometheus.Counter
	TurnErrors  prometheus.Counter
	Active      prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modcast_turns_total",
			Help: "Completed speaking turns by speaker.",
		}, []string{"speaker"}),
		AudioFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "modcast_audio_frames_total",
			Help: "Audio frames streamed to listeners.",
		}),
		TurnErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "modcast_turn_errors_total",
			Help: "Persona turns that failed against the backend.",
		}),
		Active: factory.NewGauge(prometheus.GaugeOpts{
			Name: "modcast_conversation_active",
			Help: "Whether a conversation is currently running.",
		}),
	}
}

// Observe consumes bus events until ctx is cancelled.
func (m *Metrics) Observe(ctx context.Context, bus *conversation.Bus) {
	events, unsubscribe := bus.Subscribe(256)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.record(ev)
		}
	}
}

func (m *Metrics) record(ev conversation.Event) {
	switch ev.Kind {
	case conversation.EventPersonaStarted, conversation.EventHumanStarted:
		m.Active.Set(1)
	case conversation.EventAudioChunk:
		m.AudioFrames.Inc()
	case conversation.EventPersonaFinished:
		m.Turns.WithLabelValues(ev.Speaker).Inc()
	case conversation.EventHumanEnded:
		m.Turns.WithLabelValues(conversation.HumanSpeaker).Inc()
	case conversation.EventTurnError:
		m.TurnErrors.Inc()
	case conversation.EventComplete, conversation.EventStopped:
		m.Active.Set(0)
	}
}
