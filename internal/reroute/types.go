package reroute

import (
	"time"

	"github.com/lucasnoah/careerpath/internal/roadmap"
)

// Phase is the position of a learner in the rerouting lifecycle.
type Phase string

const (
	PhaseNormal              Phase = "normal"
	PhaseDetected            Phase = "detected" // transient; never persisted
	PhaseAlternativesOffered Phase = "alternatives_offered"
	PhaseAlternativeActive   Phase = "alternative_active"
	PhaseAlternativeComplete Phase = "alternative_complete"
)

// PathType tells whether the active roadmap is the learner's original one.
type PathType string

const (
	PathOriginal PathType = "original"
	PathRerouted PathType = "rerouted"
)

// AdjustedOriginalID is the option id of the adjusted-original proposal.
const AdjustedOriginalID = "original_adjusted"

// Proposal is one candidate path offered after a deviation.
type Proposal struct {
	OptionID           string  `json:"option_id"`
	TargetRole         string  `json:"target_role"`
	Rationale          string  `json:"rationale"`
	SuccessProbability float64 `json:"success_probability"`
	TimelineMonths     int     `json:"timeline_months"`
	BriefRoadmap       string  `json:"brief_roadmap,omitempty"`
	AdjustedOriginal   bool    `json:"adjusted_original"`
}

// State is the rerouting bookkeeping stored next to the active roadmap.
type State struct {
	Phase                           Phase      `json:"phase"`
	IsRerouting                     bool       `json:"is_rerouting"`
	OriginalRoadmapID               string     `json:"original_roadmap_id,omitempty"`
	AlternativeRoadmaps             []Proposal `json:"alternative_roadmaps"`
	SelectedAlternativeID           string     `json:"selected_alternative_id,omitempty"`
	AlternativeCompletionPercentage float64    `json:"alternative_completion_percentage"`
	RedirectAvailable               bool       `json:"redirect_available"`
	RerouteTimestamp                *time.Time `json:"reroute_timestamp,omitempty"`
	RerouteReason                   string     `json:"reroute_reason,omitempty"`
	RerouteCount                    int        `json:"reroute_count"`
}

// PathChange is an entry in the path change history.
type PathChange struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"` // "reroute", "reversion", "kept_alternative"
	FromRole  string    `json:"from_role"`
	ToRole    string    `json:"to_role"`
	Reason    string    `json:"reason,omitempty"`
}

// Path is the learner's active path: the roadmap in force plus everything
// needed to leave it and come back.
type Path struct {
	TargetRole         string           `json:"target_role"`
	OriginalTargetRole string           `json:"original_target_role,omitempty"`
	CurrentPathType    PathType         `json:"current_path_type"`
	Roadmap            *roadmap.Roadmap `json:"roadmap,omitempty"`
	OriginalRoadmap    *roadmap.Roadmap `json:"original_roadmap,omitempty"`
	Reroute            State            `json:"reroute_state"`
	PathChangeHistory  []PathChange     `json:"path_change_history"`
}

// CurrentPhase returns the path's phase, treating an unset phase as normal.
func (p *Path) CurrentPhase() Phase {
	if p.Reroute.Phase == "" {
		return PhaseNormal
	}
	return p.Reroute.Phase
}

// Proposal returns the stored proposal with the given option id.
func (s *State) Proposal(optionID string) (Proposal, bool) {
	for _, alt := range s.AlternativeRoadmaps {
		if alt.OptionID == optionID {
			return alt, true
		}
	}
	return Proposal{}, false
}
