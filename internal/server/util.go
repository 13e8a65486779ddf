package server

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func newGameID() string {
	return fmt.Sprintf("game_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func newPlayerID() string {
	return uuid.NewString()
}
