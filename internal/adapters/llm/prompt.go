package llm

import (
	"github.com/PabloGalante/idefend/internal/domain"
)

// Provider-side role names. The provider calls the assistant "model".
const (
	wireRoleUser  = "user"
	wireRoleModel = "model"
)

func wireRole(r domain.Role) string {
	switch r {
	case domain.RoleAssistant:
		return wireRoleModel
	case domain.RoleUser:
		fallthrough
	default:
		return wireRoleUser
	}
}

// conversationTurns drops anything before the first user turn; the provider
// rejects conversations that open with a model turn.
func conversationTurns(turns []domain.Turn) []domain.Turn {
	for i, t := range turns {
		if t.Role == domain.RoleUser {
			return turns[i:]
		}
	}
	return nil
}
