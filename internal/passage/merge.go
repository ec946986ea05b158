package passage

// merger accumulates windows into passages. A window joins the first passage
// it overlaps or touches, in insertion order; passages already in the list
// are never merged with each other afterwards.
type merger struct {
	passages []Passage
}

func (m *merger) add(start, end int) {
	for i := range m.passages {
		p := &m.passages[i]
		if start <= p.End && end >= p.Start {
			p.Start = min(p.Start, start)
			p.End = max(p.End, end)
			p.Score++
			return
		}
	}
	m.passages = append(m.passages, Passage{Start: start, End: end, Score: 1})
}
