package web

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-sonicnav/pkg/hub"
	"github.com/teslashibe/go-sonicnav/pkg/protocol"
)

// handleHealth reports liveness
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"status_clients": s.statusHub.ClientCount(),
	})
}

// handleStatus returns the last frame's guidance
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(protocol.GuidanceFromStatus(s.nav.Status()))
}

// handlePostFrame runs one frame sent over plain HTTP
func (s *Server) handlePostFrame(c *fiber.Ctx) error {
	var data protocol.FrameData
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(protocol.ErrorData{
			Error: fmt.Sprintf("invalid frame: %v", err),
		})
	}

	st, err := s.nav.HandleFrame(data.Frame(time.Now()))
	if err != nil {
		s.logger.Warn("frame handled with audio error", "error", err)
	}
	g := protocol.GuidanceFromStatus(st)
	g.FrameID = data.FrameID
	return c.JSON(g)
}

// handleStart arms navigation for the next tracking frame
func (s *Server) handleStart(c *fiber.Ctx) error {
	s.nav.RequestStart()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "pending",
	})
}

// handleStop drops the target and silences the cue
func (s *Server) handleStop(c *fiber.Ctx) error {
	if err := s.nav.Stop(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(protocol.ErrorData{
			Error: err.Error(),
		})
	}
	return c.JSON(protocol.GuidanceFromStatus(s.nav.Status()))
}

// handleFramesWS reads frames from an AR host and answers each with guidance.
// Reads and writes share this goroutine, so the connection has one writer.
func (s *Server) handleFramesWS(c *websocket.Conn) {
	c.SetReadLimit(s.cfg.MaxFrameBytes)
	s.logger.Info("frame source connected", "remote", c.RemoteAddr().String())
	defer s.logger.Info("frame source disconnected", "remote", c.RemoteAddr().String())

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("frame socket closed", "error", err)
			}
			return
		}

		reply := s.dispatch(data)
		if reply == nil {
			continue
		}
		b, err := reply.Bytes()
		if err != nil {
			s.logger.Error("encode reply", "error", err)
			continue
		}
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
}

// dispatch handles one host message and returns the reply, if any.
func (s *Server) dispatch(data []byte) *protocol.Message {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		return s.errorReply(err)
	}

	switch msg.Type {
	case protocol.TypeFrame:
		var fd protocol.FrameData
		if err := msg.ParseData(&fd); err != nil {
			return s.errorReply(fmt.Errorf("invalid frame: %w", err))
		}
		id := fd.FrameID
		if id == 0 {
			id = s.frameID.Add(1)
		}
		st, err := s.nav.HandleFrame(fd.Frame(msg.Time()))
		if err != nil {
			s.logger.Warn("frame handled with audio error", "frame", id, "error", err)
		}
		reply, err := protocol.NewGuidanceMessage(st, id)
		if err != nil {
			return s.errorReply(err)
		}
		return reply

	case protocol.TypeStart:
		s.nav.RequestStart()
		return nil

	case protocol.TypeStop:
		if err := s.nav.Stop(); err != nil {
			return s.errorReply(err)
		}
		reply, err := protocol.NewGuidanceMessage(s.nav.Status(), 0)
		if err != nil {
			return s.errorReply(err)
		}
		return reply

	case protocol.TypePing:
		var ping protocol.PingData
		if err := msg.ParseData(&ping); err != nil {
			return s.errorReply(err)
		}
		pong, err := protocol.NewPongMessage(ping)
		if err != nil {
			return s.errorReply(err)
		}
		return pong

	default:
		return s.errorReply(fmt.Errorf("unsupported message type %q", msg.Type))
	}
}

func (s *Server) errorReply(err error) *protocol.Message {
	s.logger.Debug("rejecting host message", "error", err)
	msg, mErr := protocol.NewErrorMessage(err)
	if mErr != nil {
		return nil
	}
	return msg
}

// handleStatusWS streams guidance to observers, starting with the latest.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	var initial []hub.Message
	if msg, err := protocol.NewGuidanceMessage(s.nav.Status(), 0); err == nil {
		if b, err := msg.Bytes(); err == nil {
			initial = append(initial, hub.NewJSONMessage(b))
		}
	}
	hub.NewClient(s.statusHub, c, initial...).Run()
}
