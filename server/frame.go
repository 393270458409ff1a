// SPDX-License-Identifier: GPL-2.0-or-later

package server

import (
	"time"

	"gofakk/errs"
	"gofakk/game"
)

// MaxFrameMsec is the most wall time a single frame may simulate.
const MaxFrameMsec = 500

// defaultFrameTime is used while sv_fps holds no usable value.
const defaultFrameTime = 50

// ClampWallMsec keeps a long stall from running the simulation for
// seconds at once.
func ClampWallMsec(msec int) int {
	if msec < 0 {
		return 0
	}
	if msec > MaxFrameMsec {
		return MaxFrameMsec
	}
	return msec
}

// Frame advances the level by msec of wall time in steps of the frame
// time. A Drop error shuts the level down, the error is returned in any
// case.
func (s *Server) Frame(msec int) error {
	if s.state != Game {
		return nil
	}
	start := time.Now()
	defer func() {
		s.Metrics.FrameDuration.Observe(time.Since(start).Seconds())
	}()

	err := s.frame(ClampWallMsec(msec))
	if err != nil && errs.CodeOf(err) == errs.Drop {
		s.Shutdown(err.Error())
	}
	return err
}

func (s *Server) frame(msec int) error {
	if err := s.readPackets(); err != nil {
		return err
	}
	if s.state != Game {
		return nil
	}
	s.updateFrameTime()
	s.residual += msec

	ge := s.ge
	for s.residual >= s.frameTime {
		s.residual -= s.frameTime
		s.time += s.frameTime
		s.debugLines.Clear()
		err := game.Call(func() {
			for _, c := range s.clients {
				if c.state == clientActive {
					ge.ClientThink(s.gentity(c.num), &c.lastCmd)
				}
			}
			ge.RunFrame(s.time, s.frameTime)
		})
		if err != nil {
			return err
		}
		s.Metrics.ServerFrames.Inc()
		if s.state != Game {
			return nil
		}
	}

	if err := game.Call(ge.PrepFrame); err != nil {
		return err
	}
	s.sendSnapshots()
	s.sounds = s.sounds[:0]
	return nil
}
