package quest

import "github.com/sojrpg/server/apperr"

// Ledger and lifecycle failure conditions. Conflict errors mean the
// transition's precondition already holds; NotFound errors mean the
// expected active row does not exist.
var (
	ErrAlreadyAtLocation    = apperr.Conflict("quest is already at this location")
	ErrLocationActive       = apperr.Conflict("quest already has an active location")
	ErrCharacterOnQuest     = apperr.Conflict("character is already on a quest")
	ErrCharacterOnThisQuest = apperr.Conflict("character is already on this quest")
	ErrNoActiveLocation     = apperr.NotFound("quest has no active location")
	ErrNotOnQuest           = apperr.NotFound("character is not on this quest")
	ErrQuestNotFound        = apperr.NotFound("quest not found")
)
