package usercontext

import (
	"fmt"

	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/reroute"
	"github.com/lucasnoah/careerpath/internal/roadmap"
)

// Export serializes a context in the stored document format.
func Export(c *UserContext) ([]byte, error) {
	data, err := marshalDocument(c)
	if err != nil {
		return nil, apperr.IO(err, "export context %s", c.UserID)
	}
	return data, nil
}

// Import parses an exported document and checks that it describes a
// consistent context.
func Import(data []byte) (*UserContext, error) {
	c, err := unmarshalDocument(data)
	if err != nil {
		return nil, apperr.Validation("decode context: %v", err)
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the cross-field rules of a context.
func Validate(c *UserContext) error {
	if err := ValidateUserID(c.UserID); err != nil {
		return err
	}
	if c.LastUpdated.Before(c.CreatedAt) {
		return apperr.Validation("last_updated precedes created_at")
	}

	p := c.ActivePath
	if p.Roadmap != nil {
		if err := roadmap.CheckInvariants(p.Roadmap); err != nil {
			return err
		}
	}

	st := p.Reroute
	switch p.CurrentPhase() {
	case reroute.PhaseNormal, reroute.PhaseAlternativesOffered:
		if st.IsRerouting {
			return apperr.Validation("is_rerouting set in phase %s", p.CurrentPhase())
		}
	case reroute.PhaseAlternativeActive, reroute.PhaseAlternativeComplete:
		if !st.IsRerouting || st.SelectedAlternativeID == "" {
			return apperr.Validation("phase %s without an active selection", p.CurrentPhase())
		}
		if st.OriginalRoadmapID != "" && (p.OriginalRoadmap == nil || p.OriginalRoadmap.RoadmapID != st.OriginalRoadmapID) {
			return apperr.Validation("original roadmap %s is not retained", st.OriginalRoadmapID)
		}
	default:
		return apperr.Validation("unknown reroute phase %q", st.Phase)
	}
	if st.RedirectAvailable != (p.CurrentPhase() == reroute.PhaseAlternativeComplete) {
		return apperr.Validation("redirect_available disagrees with phase %s", p.CurrentPhase())
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *UserContext) Clone() *UserContext {
	data, err := marshalDocument(c)
	if err != nil {
		panic(fmt.Sprintf("clone context %s: %v", c.UserID, err))
	}
	out, err := unmarshalDocument(data)
	if err != nil {
		panic(fmt.Sprintf("clone context %s: %v", c.UserID, err))
	}
	return out
}
