package game

import "errors"

// Game errors
var (
	ErrNotYourTurn      = errors.New("not your turn")
	ErrWrongPhase       = errors.New("action not allowed in current phase")
	ErrInvalidAction    = errors.New("invalid action")
	ErrInsufficientAP   = errors.New("insufficient action points")
	ErrInvalidPlacement = errors.New("invalid placement")
	ErrOutOfRange       = errors.New("target out of range")
	ErrNotAdjacent      = errors.New("not adjacent")
	ErrInvalidTarget    = errors.New("invalid target")
	ErrUnitNotFound     = errors.New("unit not found")
	ErrNotYourUnit      = errors.New("unit belongs to another player")
	ErrCargoFull        = errors.New("carrier cannot take this load")
	ErrUnderFire        = errors.New("hex is under enemy fire")
	ErrUnitStuck        = errors.New("unit is stuck")
	ErrUnitNeutralized  = errors.New("unit is neutralized")
	ErrAlreadyDecided   = errors.New("lift-off decision already recorded")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrGameOver         = errors.New("game is over")
	ErrStaleTimeout     = errors.New("turn already advanced")
)

// Code is a machine-readable rejection reason carried to the client.
type Code string

const (
	CodeNotYourTurn      Code = "not_your_turn"
	CodeWrongPhase       Code = "wrong_phase"
	CodeInvalidAction    Code = "invalid_action"
	CodeInsufficientAP   Code = "insufficient_ap"
	CodeInvalidPlacement Code = "invalid_placement"
	CodeOutOfRange       Code = "out_of_range"
	CodeNotAdjacent      Code = "not_adjacent"
	CodeInvalidTarget    Code = "invalid_target"
	CodeUnitNotFound     Code = "unit_not_found"
	CodeCargoFull        Code = "cargo_full"
	CodeUnderFire        Code = "under_fire"
	CodeUnitStuck        Code = "unit_stuck"
	CodeUnitNeutralized  Code = "unit_neutralized"
	CodeAlreadyDecided   Code = "already_decided"
	CodeGameOver         Code = "game_over"
)

var codes = map[error]Code{
	ErrNotYourTurn:      CodeNotYourTurn,
	ErrWrongPhase:       CodeWrongPhase,
	ErrInvalidAction:    CodeInvalidAction,
	ErrInsufficientAP:   CodeInsufficientAP,
	ErrInvalidPlacement: CodeInvalidPlacement,
	ErrOutOfRange:       CodeOutOfRange,
	ErrNotAdjacent:      CodeNotAdjacent,
	ErrInvalidTarget:    CodeInvalidTarget,
	ErrUnitNotFound:     CodeUnitNotFound,
	ErrNotYourUnit:      CodeInvalidTarget,
	ErrCargoFull:        CodeCargoFull,
	ErrUnderFire:        CodeUnderFire,
	ErrUnitStuck:        CodeUnitStuck,
	ErrUnitNeutralized:  CodeUnitNeutralized,
	ErrAlreadyDecided:   CodeAlreadyDecided,
	ErrPlayerNotFound:   CodeNotYourTurn,
	ErrGameOver:         CodeGameOver,
	ErrStaleTimeout:     CodeWrongPhase,
}

// ValidationError is returned for any rejected action. The state the action
// was applied against is never modified.
type ValidationError struct {
	Code   Code
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Detail
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// reject builds a ValidationError for one of the sentinel errors above.
func reject(err error, detail string) error {
	code, ok := codes[err]
	if !ok {
		code = CodeInvalidAction
	}
	return &ValidationError{Code: code, Err: err, Detail: detail}
}

// CodeOf returns the rejection code of err, or CodeInvalidAction.
func CodeOf(err error) Code {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	if code, ok := codes[err]; ok {
		return code
	}
	return CodeInvalidAction
}
