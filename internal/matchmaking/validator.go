package matchmaking

import (
	"github.com/mathrivals/ArenaServer/internal/apperrors"
	"github.com/mathrivals/ArenaServer/internal/party"
)

// ParseMatchType rejects an empty match type explicitly instead of
// defaulting it; an unknown value gets its own error.
func ParseMatchType(raw string) (MatchType, *apperrors.AppError) {
	switch MatchType(raw) {
	case MatchTypeRanked, MatchTypeCasual:
		return MatchType(raw), nil
	case "":
		return "", apperrors.NewAppError(400, ErrMatchTypeRequired, nil)
	default:
		return "", apperrors.NewAppError(400, ErrInvalidMatchType, nil)
	}
}

// ValidateRoster gates a join request. Rules run in a fixed order and the
// first failure wins, so every rejection carries exactly one stable message.
func ValidateRoster(actorID string, p *party.Party, matchType MatchType) *apperrors.AppError {
	if p == nil {
		return apperrors.NewAppError(404, ErrPartyNotFound, nil)
	}

	if p.LeaderID != actorID {
		return apperrors.NewAppError(403, ErrNotPartyLeader, nil)
	}

	// A party is 1-5 players; an empty roster means a corrupt party row,
	// not a queueable party.
	if len(p.Members) == 0 {
		return apperrors.NewAppError(400, ErrPartyEmpty, nil)
	}

	for _, m := range p.Members {
		if !m.Ready {
			return apperrors.NewAppError(400, ErrMembersNotReady, nil)
		}
	}

	if matchType == MatchTypeRanked {
		return validateRankedRoster(p)
	}
	return validateCasualRoster(p)
}

func validateRankedRoster(p *party.Party) *apperrors.AppError {
	if len(p.Members) != TeamSize {
		return apperrors.NewAppError(400, ErrRankedPartySize, nil)
	}
	if p.IGLID == "" {
		return apperrors.NewAppError(400, ErrIGLNotAssigned, nil)
	}
	if !p.HasMember(p.IGLID) {
		return apperrors.NewAppError(404, ErrIGLNotInParty, nil)
	}
	if p.AnchorID == "" {
		return apperrors.NewAppError(400, ErrAnchorNotAssigned, nil)
	}
	if !p.HasMember(p.AnchorID) {
		return apperrors.NewAppError(404, ErrAnchorNotInParty, nil)
	}
	return nil
}

// Casual rosters carry no role requirements, but an assigned role pointing
// at a departed member still fails rather than being silently dropped.
func validateCasualRoster(p *party.Party) *apperrors.AppError {
	if p.IGLID != "" && !p.HasMember(p.IGLID) {
		return apperrors.NewAppError(404, ErrIGLNotInParty, nil)
	}
	if p.AnchorID != "" && !p.HasMember(p.AnchorID) {
		return apperrors.NewAppError(404, ErrAnchorNotInParty, nil)
	}
	return nil
}
