package server

import (
	"bytes"
	"encoding/json"
	"errors"

	"imitation-game/internal/game"

	"github.com/gin-gonic/gin/binding"
)

const (
	frameConnected = "connected"
	frameAck       = "ack"
)

const (
	eventCreateRoom      = "create_room"
	eventJoinRoom        = "join_room"
	eventLeaveRoom       = "leave_room"
	eventHostStartClip   = "host_start_clip"
	eventClipDone        = "clip_done"
	eventRecordingDone   = "recording_done"
	eventButtonCountdown = "request_button_countdown"
	eventHostStartVotes  = "host_start_votes"
	eventVote            = "vote"
	eventHostNextClip    = "host_next_clip"
)

type inboundFrame struct {
	Type string          `json:"type"`
	Ack  string          `json:"ack,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Type string `json:"type"`
	Ack  string `json:"ack,omitempty"`
	Data any    `json:"data,omitempty"`
}

type connectedPayload struct {
	ConnID string `json:"connId"`
}

type ackPayload struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomId,omitempty"`
	Error   string `json:"error,omitempty"`
}

type createRoomRequest struct {
	Name string `json:"name" binding:"required,name"`
}

type joinRoomRequest struct {
	Code string `json:"code" binding:"required,joincode"`
	Name string `json:"name" binding:"required,name"`
}

type roomRequest struct {
	RoomID string `json:"roomId" binding:"required,joincode"`
}

func (r roomRequest) room() string {
	return r.RoomID
}

type recordingRequest struct {
	roomRequest
	BlobName string `json:"blobName" binding:"required,max=128"`
}

type countdownRequest struct {
	roomRequest
	Action string `json:"action" binding:"required,oneof=start_game listen_imitations next_clip"`
}

type voteRequest struct {
	roomRequest
	TargetID string `json:"targetId" binding:"required,max=64"`
	Note     int    `json:"note" binding:"oneof=-1 1 2"`
}

type roomScoped interface {
	room() string
}

var roomMessages = bindMessages{
	"Name": {
		"required": "name is required",
		"name":     "name must be 1-20 characters of letters, digits or punctuation",
	},
	"Code": {
		"required": "code is required",
		"joincode": "code must be 6 digits",
	},
}

var errMissingData = errors.New("missing data")

func (s *Server) dispatch(c *client, frame inboundFrame) {
	switch frame.Type {
	case eventCreateRoom:
		s.createRoom(c, frame)
	case eventJoinRoom:
		s.joinRoom(c, frame)
	case eventLeaveRoom:
		var req roomRequest
		if s.decodeScoped(c, frame, &req) {
			s.rooms.Leave(req.RoomID, c.id)
		}
	case eventHostStartClip:
		var req roomRequest
		if room, ok := s.lookupRoom(c, frame, &req); ok {
			room.StartRound(c.id)
		}
	case eventClipDone:
		var req roomRequest
		if room, ok := s.lookupRoom(c, frame, &req); ok {
			room.ClipFinished(c.id)
		}
	case eventRecordingDone:
		var req recordingRequest
		if room, ok := s.lookupRoom(c, frame, &req); ok {
			room.SubmitRecording(c.id, req.BlobName)
		}
	case eventButtonCountdown:
		var req countdownRequest
		if room, ok := s.lookupRoom(c, frame, &req); ok {
			if action, valid := game.ParseAction(req.Action); valid {
				room.RequestTimedAction(c.id, action)
			}
		}
	case eventHostStartVotes:
		var req roomRequest
		if room, ok := s.lookupRoom(c, frame, &req); ok {
			room.StartVoting(c.id)
		}
	case eventVote:
		var req voteRequest
		if room, ok := s.lookupRoom(c, frame, &req); ok {
			room.CastVote(c.id, req.TargetID, game.Note(req.Note))
		}
	case eventHostNextClip:
		var req roomRequest
		if room, ok := s.lookupRoom(c, frame, &req); ok {
			room.NextRound(c.id)
		}
	default:
		s.log.Debug().Str("conn", c.id).Str("type", frame.Type).Msg("unknown event")
	}
}

func (s *Server) createRoom(c *client, frame inboundFrame) {
	var req createRoomRequest
	if err := decodeRequest(frame.Data, &req); err != nil {
		s.ack(c, frame.Ack, ackPayload{Error: resolveBindError(err, roomMessages, "invalid create request")})
		return
	}
	name, _ := validateName(req.Name)
	room, err := s.rooms.Create(c.id, name)
	if err != nil {
		s.log.Warn().Str("conn", c.id).Err(err).Msg("create session failed")
		s.ack(c, frame.Ack, ackPayload{Error: err.Error()})
		return
	}
	s.ack(c, frame.Ack, ackPayload{Success: true, RoomID: room.Code()})
}

func (s *Server) joinRoom(c *client, frame inboundFrame) {
	var req joinRoomRequest
	if err := decodeRequest(frame.Data, &req); err != nil {
		s.ack(c, frame.Ack, ackPayload{Error: resolveBindError(err, roomMessages, "invalid join request")})
		return
	}
	name, _ := validateName(req.Name)
	room, err := s.rooms.Join(req.Code, c.id, name)
	if err != nil {
		s.log.Debug().Str("conn", c.id).Str("session", req.Code).Err(err).Msg("join rejected")
		s.ack(c, frame.Ack, ackPayload{Error: err.Error()})
		return
	}
	s.ack(c, frame.Ack, ackPayload{Success: true, RoomID: room.Code()})
}

func (s *Server) ack(c *client, id string, payload ackPayload) {
	s.ws.Send(c.id, outboundFrame{Type: frameAck, Ack: id, Data: payload})
}

// decodeScoped decodes a room-scoped request. Invalid requests are dropped
// without a reply.
func (s *Server) decodeScoped(c *client, frame inboundFrame, req roomScoped) bool {
	if err := decodeRequest(frame.Data, req); err != nil {
		s.log.Debug().Str("conn", c.id).Str("type", frame.Type).Err(err).Msg("invalid request ignored")
		return false
	}
	return true
}

// lookupRoom decodes req and resolves its room. Unknown rooms are a silent
// no-op.
func (s *Server) lookupRoom(c *client, frame inboundFrame, req roomScoped) (*game.Room, bool) {
	if !s.decodeScoped(c, frame, req) {
		return nil, false
	}
	room, ok := s.rooms.Lookup(req.room())
	if !ok {
		s.log.Debug().Str("conn", c.id).Str("session", req.room()).Str("type", frame.Type).Msg("unknown session")
		return nil, false
	}
	return room, true
}

// decodeRequest reads a frame's data into req and validates it with gin's
// validator engine. A bare JSON string is accepted as {"roomId": ...}.
func decodeRequest(raw json.RawMessage, req any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return errMissingData
	}
	if raw[0] == '"' {
		wrapped, err := json.Marshal(map[string]json.RawMessage{"roomId": raw})
		if err != nil {
			return err
		}
		raw = wrapped
	}
	if err := readJSON(bytes.NewReader(raw), req); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(req)
}
