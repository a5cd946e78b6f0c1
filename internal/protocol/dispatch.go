package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame is returned for frames that are not a JSON object.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownType is returned for frames with an unsupported type.
	ErrUnknownType = errors.New("unknown message type")
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("missing field")
)

// Handler receives decoded participant events.
type Handler interface {
	Join(participant, name string)
	Move(participant string, x, y int)
	Vote(participant string, choice int)
}

type inboundFrame struct {
	Type   string  `json:"type"`
	Name   *string `json:"name"`
	X      *int    `json:"x"`
	Y      *int    `json:"y"`
	Choice *int    `json:"choice"`
}

// Dispatch decodes one frame and hands it to h. Blank frames are ignored.
func Dispatch(h Handler, participant string, data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	var in inboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch in.Type {
	case TypeJoin:
		if in.Name == nil {
			return fmt.Errorf("%s: %w: name", in.Type, ErrMissingField)
		}
		h.Join(participant, *in.Name)
	case TypeMove:
		if in.X == nil || in.Y == nil {
			return fmt.Errorf("%s: %w: x, y", in.Type, ErrMissingField)
		}
		h.Move(participant, *in.X, *in.Y)
	case TypeVote:
		if in.Choice == nil {
			return fmt.Errorf("%s: %w: choice", in.Type, ErrMissingField)
		}
		h.Vote(participant, *in.Choice)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}
	return nil
}
