package encrefs

// PeriodicCounter tracks when its [LongTermTemplate]
// next promotes a frame to a long-term reference.
type PeriodicCounter struct {
	Delay          int      `json:"delay"`
	DelayRemaining int      `json:"delayRemaining"`
	Period         int      `json:"period"`
	Count          int      `json:"count"`
	Cycle          int      `json:"cycle"`
	LongTermIndex  int      `json:"longTermIndex"`
	TemporalID     int      `json:"temporalId"`
	Selector       Selector `json:"ref"`
	SelectorArg    int      `json:"refArg"`
}

func newCounters(templates []LongTermTemplate) []PeriodicCounter {
	counters := make([]PeriodicCounter, len(templates))
	for i, template := range templates {
		counters[i] = PeriodicCounter{
			Delay:          template.InitialDelay,
			DelayRemaining: template.InitialDelay,
			Period:         template.Period,
			LongTermIndex:  template.LongTermIndex,
			TemporalID:     template.TemporalID,
			Selector:       template.Selector,
			SelectorArg:    template.SelectorArg,
		}
	}
	return counters
}

func (pc *PeriodicCounter) restart() {
	pc.DelayRemaining = pc.Delay
	pc.Count = 0
	pc.Cycle = 0
}

// promote turns frame into this counter's long-term reference.
func (pc *PeriodicCounter) promote(frame Frame) Frame {
	return frame.
		withNonReference(false).
		withLongTerm(true).
		withLongTermIndex(pc.LongTermIndex).
		withTemporalID(pc.TemporalID).
		withSelector(pc.Selector, pc.SelectorArg)
}

func (pc *PeriodicCounter) step() {
	pc.Count++
	if pc.Count < pc.Period {
		return
	}
	if pc.Period > 0 {
		pc.Count = 0
		pc.Cycle++
		return
	}
	// One-shot templates stay spent.
	pc.Count = 1
	pc.Cycle = 1
}

// tickCounters advances every counter by one frame.
// The first due counter, in template order, promotes frame;
// later due counters lose their turn for this cycle.
func tickCounters(counters []PeriodicCounter, frame Frame) Frame {
	promoted := false
	for i := range counters {
		counter := &counters[i]
		if counter.DelayRemaining > 0 {
			counter.DelayRemaining--
			continue
		}
		if !promoted && counter.Count == 0 {
			frame = counter.promote(frame)
			promoted = true
		}
		counter.step()
	}
	return frame
}
