package engine

import "errors"

var ErrConfiguration = errors.New("roster and capacities are inconsistent")
var ErrNotYourTurn = errors.New("team is not eligible to act")
var ErrInvalidAmount = errors.New("bid amount is invalid")
var ErrPlayerUnavailable = errors.New("player is not in the pool")
var ErrSessionNotActive = errors.New("session is not in progress")
var ErrUnsupportedCommand = errors.New("unsupported command")
