package dataflow

// Probe tracks the frontier of a combined `must` output, mirroring the
// `probe` primitive of spec §6 that drivers use to `step_while(probe <
// query_frontier)`. Since this library runs correction rounds to
// completion synchronously rather than as a live streaming computation,
// Probe simply records the last timestamp observed; callers that want
// the streaming step-while idiom can poll Advance/Frontier between
// correction rounds.
type Probe struct {
	frontier Timestamp
}

// Advance records t as observed, if it is newer than the current frontier.
func (p *Probe) Advance(t Timestamp) {
	if p.frontier.Less(t) {
		p.frontier = t
	}
}

// Frontier returns the latest timestamp observed so far.
func (p *Probe) Frontier() Timestamp {
	return p.frontier
}

// Lt reports whether the probe's frontier is strictly behind t, the
// condition drivers loop on (`step_while(probe.lt(&query.time()))`).
func (p *Probe) Lt(t Timestamp) bool {
	return p.frontier.Less(t)
}
