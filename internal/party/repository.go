package party

import (
	"errors"
	"strconv"

	"github.com/mathrivals/ArenaServer/internal/apperrors"
	"github.com/mathrivals/ArenaServer/internal/user"
	"github.com/mathrivals/ArenaServer/pkg/db"
	"gorm.io/gorm"
)

// PartyRecord is the persisted party row. Membership itself is managed by
// the party/lobby surface, matchmaking only reads it.
type PartyRecord struct {
	ID        string `gorm:"primaryKey" json:"id"`
	LeaderID  uint   `gorm:"not null" json:"leaderId"`
	IGLID     *uint  `json:"iglId"`
	AnchorID  *uint  `json:"anchorId"`
	Operation string `gorm:"not null;default:addition" json:"operation"`
}

type PartyMemberRecord struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	PartyID string `gorm:"index;not null" json:"partyId"`
	UserID  uint   `gorm:"not null" json:"userId"`
	Ready   bool   `json:"ready"`
}

// GormProvider loads read-only party snapshots with each member's rating
// resolved for the requested mode and the party's operation.
type GormProvider struct{}

func NewGormProvider() *GormProvider {
	return &GormProvider{}
}

// GetPartySnapshot returns nil without error when the party does not exist.
func (p *GormProvider) GetPartySnapshot(partyID string, mode string) (*Party, error) {
	var record PartyRecord
	result := db.DB.Where("id = ?", partyID).First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if result.Error != nil {
		return nil, apperrors.NewAppError(500, "Error loading party", result.Error)
	}

	var memberRows []PartyMemberRecord
	if err := db.DB.Where("party_id = ?", partyID).Order("id asc").Find(&memberRows).Error; err != nil {
		return nil, apperrors.NewAppError(500, "Error loading party members", err)
	}

	snapshot := Party{
		ID:        record.ID,
		LeaderID:  strconv.Itoa(int(record.LeaderID)),
		Operation: record.Operation,
		Members:   make([]Member, 0, len(memberRows)),
	}
	if record.IGLID != nil {
		snapshot.IGLID = strconv.Itoa(int(*record.IGLID))
	}
	if record.AnchorID != nil {
		snapshot.AnchorID = strconv.Itoa(int(*record.AnchorID))
	}

	for _, row := range memberRows {
		u, err := user.GetUser(row.UserID)
		if err != nil {
			return nil, apperrors.NewAppError(500, "Error loading party member", err)
		}
		rating, err := user.GetRating(row.UserID, mode, record.Operation)
		if err != nil {
			return nil, err
		}

		id := strconv.Itoa(int(row.UserID))
		snapshot.Members = append(snapshot.Members, Member{
			ID:           id,
			Name:         u.Username,
			Level:        u.Level,
			Rating:       rating,
			Ready:        row.Ready,
			IsLeader:     id == snapshot.LeaderID,
			IsIGL:        id == snapshot.IGLID && snapshot.IGLID != "",
			IsAnchor:     id == snapshot.AnchorID && snapshot.AnchorID != "",
			IsAITeammate: false,
		})
	}

	return &snapshot, nil
}
