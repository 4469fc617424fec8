package motionplan

// classRegistry is the list of homotopy classes known in the current cycle. No two entries are within the
// threshold they were registered with.
type classRegistry struct {
	signatures []HSignature
}

// register adds h if no known signature is within threshold of it and reports whether it did.
func (r *classRegistry) register(h HSignature, threshold float64) bool {
	for _, known := range r.signatures {
		if known.EqualWithin(h, threshold) {
			return false
		}
	}
	r.signatures = append(r.signatures, h)
	return true
}

func (r *classRegistry) reset() {
	r.signatures = r.signatures[:0]
}

func (r *classRegistry) len() int {
	return len(r.signatures)
}

// snapshot returns a copy of the registered signatures.
func (r *classRegistry) snapshot() []HSignature {
	out := make([]HSignature, len(r.signatures))
	copy(out, r.signatures)
	return out
}
