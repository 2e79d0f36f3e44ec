// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package chirp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownLevel is returned by ParseLevel for names that match no level.
var ErrUnknownLevel = errors.New("unknown level")

// Level is the severity rank of an Entry. Values are part of the wire format
// and must never change.
type Level int

const (
	TRACE Level = 10
	DEBUG Level = 20
	INFO  Level = 30
	WARN  Level = 40
	ERROR Level = 50
	FATAL Level = 60
)

// Levels returns all the known levels in ascending order of severity.
func Levels() []Level {
	return []Level{TRACE, DEBUG, INFO, WARN, ERROR, FATAL}
}

func (l Level) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "Level(" + strconv.Itoa(int(l)) + ")"
	}
}

// ParseLevel parses a level name ignoring case.
func ParseLevel(level string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownLevel, level)
	}
}

// LevelFromString parses a level name ignoring case. Unknown names return INFO.
func LevelFromString(level string) Level {
	parsed, err := ParseLevel(level)
	if err != nil {
		return INFO
	}
	return parsed
}

// orDefault normalizes the unset zero value to INFO.
func (l Level) orDefault() Level {
	if l == 0 {
		return INFO
	}
	return l
}
