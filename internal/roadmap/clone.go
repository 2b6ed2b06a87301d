package roadmap

// Clone returns a deep copy of r.
func (r *Roadmap) Clone() *Roadmap {
	if r == nil {
		return nil
	}
	c := *r
	c.CompletedSteps = append([]int(nil), r.CompletedSteps...)
	if r.CompletedSteps != nil && c.CompletedSteps == nil {
		c.CompletedSteps = []int{}
	}
	c.Steps = make([]Step, len(r.Steps))
	for i, s := range r.Steps {
		c.Steps[i] = s
		c.Steps[i].Actions = make([]Action, len(s.Actions))
		for j := range s.Actions {
			c.Steps[i].Actions[j] = *s.Actions[j].Clone()
		}
	}
	return &c
}

// Clone returns a deep copy of a.
func (a *Action) Clone() *Action {
	c := *a
	if a.Questions != nil {
		c.Questions = append([]Question{}, a.Questions...)
	}
	if a.UserAnswers != nil {
		c.UserAnswers = append([]string{}, a.UserAnswers...)
	}
	if a.RelevanceScore != nil {
		v := *a.RelevanceScore
		c.RelevanceScore = &v
	}
	if a.CompletionTimestamp != nil {
		v := *a.CompletionTimestamp
		c.CompletionTimestamp = &v
	}
	return &c
}
