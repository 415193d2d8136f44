// Package oscremote exposes the metronome's transport and settings over OSC,
// so a tablet, a DAW or a foot controller can drive it from across the room.
// Remote control only: the audio clock itself is never shared.
package oscremote

import (
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/pkg/errors"

	"github.com/robmorgan/pulse/logger"
	"github.com/robmorgan/pulse/rhythm"
	"github.com/robmorgan/pulse/taptempo"
)

// The addresses the server answers on.
const (
	AddrStart       = "/pulse/start"
	AddrStop        = "/pulse/stop"
	AddrTempo       = "/pulse/tempo"
	AddrBeatsPerBar = "/pulse/beats"
	AddrSubdivision = "/pulse/subdivision"
	AddrVolume      = "/pulse/volume"
	AddrTap         = "/pulse/tap"
)

// Server drives a metronome engine from OSC messages.
type Server struct {
	engine *rhythm.Engine
	tapper *taptempo.Tapper
	server *osc.Server
	now    func() time.Time
}

// NewServer builds an OSC server bound to addr ("host:port").
func NewServer(addr string, engine *rhythm.Engine) (*Server, error) {
	s := &Server{
		engine: engine,
		tapper: &taptempo.Tapper{},
		now:    time.Now,
	}

	d := osc.NewStandardDispatcher()
	handlers := map[string]osc.HandlerFunc{
		AddrStart:       s.handleStart,
		AddrStop:        s.handleStop,
		AddrTempo:       s.handleTempo,
		AddrBeatsPerBar: s.handleBeatsPerBar,
		AddrSubdivision: s.handleSubdivision,
		AddrVolume:      s.handleVolume,
		AddrTap:         s.handleTap,
	}
	for pattern, h := range handlers {
		if err := d.AddMsgHandler(pattern, h); err != nil {
			return nil, errors.Wrapf(err, "registering handler for %s", pattern)
		}
	}

	s.server = &osc.Server{Addr: addr, Dispatcher: d}
	return s, nil
}

// ListenAndServe blocks serving OSC packets.
func (s *Server) ListenAndServe() error {
	logger.GetProjectLogger().Infof("OSC remote listening on %s", s.server.Addr)
	return errors.Wrap(s.server.ListenAndServe(), "serving osc")
}

func (s *Server) handleStart(msg *osc.Message) {
	if err := s.engine.Start(); err != nil {
		logger.GetProjectLogger().Warnf("osc start failed: %v", err)
	}
}

func (s *Server) handleStop(msg *osc.Message) {
	s.engine.Stop()
}

func (s *Server) handleTempo(msg *osc.Message) {
	bpm, err := numericArg(msg, 0)
	if err != nil {
		logger.GetProjectLogger().Warnf("osc tempo: %v", err)
		return
	}
	s.engine.SetTempo(bpm)
}

func (s *Server) handleBeatsPerBar(msg *osc.Message) {
	n, err := numericArg(msg, 0)
	if err != nil {
		logger.GetProjectLogger().Warnf("osc beats: %v", err)
		return
	}
	s.engine.SetBeatsPerBar(int(n))
}

func (s *Server) handleSubdivision(msg *osc.Message) {
	n, err := numericArg(msg, 0)
	if err != nil {
		logger.GetProjectLogger().Warnf("osc subdivision: %v", err)
		return
	}
	s.engine.SetSubdivision(int(n))
}

func (s *Server) handleVolume(msg *osc.Message) {
	v, err := numericArg(msg, 0)
	if err != nil {
		logger.GetProjectLogger().Warnf("osc volume: %v", err)
		return
	}
	s.engine.SetVolume(v)
}

func (s *Server) handleTap(msg *osc.Message) {
	if bpm, ok := s.tapper.Tap(s.now()); ok {
		s.engine.SetTempo(float64(bpm))
	}
}

// numericArg pulls a number out of an OSC message. Senders disagree about
// int32 versus float32, so both are accepted.
func numericArg(msg *osc.Message, i int) (float64, error) {
	if i >= len(msg.Arguments) {
		return 0, errors.Errorf("%s: missing argument %d", msg.Address, i)
	}
	switch v := msg.Arguments[i].(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, errors.Errorf("%s: argument %d has unsupported type %T", msg.Address, i, msg.Arguments[i])
}
