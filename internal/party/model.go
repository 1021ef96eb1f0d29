package party

// Member is one slot in a party roster. Humans and AI teammates share this
// shape; consumers tell them apart through IsAITeammate, which is always
// present.
type Member struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Level        int    `json:"level"`
	Rating       int    `json:"rating"`
	Ready        bool   `json:"ready"`
	IsLeader     bool   `json:"isLeader"`
	IsIGL        bool   `json:"isIGL"`
	IsAnchor     bool   `json:"isAnchor"`
	IsAITeammate bool   `json:"isAITeammate"`
}

// Party is a read-only snapshot of a party at the moment of a queue request.
// The matchmaking core never mutates party membership.
type Party struct {
	ID        string   `json:"id"`
	LeaderID  string   `json:"leaderId"`
	IGLID     string   `json:"iglId"`
	AnchorID  string   `json:"anchorId"`
	Operation string   `json:"operation"`
	Members   []Member `json:"members"`
}

// HasMember reports whether id is currently on the roster.
func (p *Party) HasMember(id string) bool {
	for _, m := range p.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// HumanMembers returns the roster without AI teammates.
func (p *Party) HumanMembers() []Member {
	humans := make([]Member, 0, len(p.Members))
	for _, m := range p.Members {
		if !m.IsAITeammate {
			humans = append(humans, m)
		}
	}
	return humans
}
