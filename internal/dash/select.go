package dash

// Quality extracts the numeric attribute representations are ranked by.
type Quality func(Representation) int

var (
	ByWidth        Quality = func(r Representation) int { return r.Width }
	BySamplingRate Quality = func(r Representation) int { return r.AudioSamplingRate }
	ByBandwidth    Quality = func(r Representation) int { return r.Bandwidth }
)

// SelectBest returns the representation with the highest quality value.
// The first representation wins ties.
func SelectBest(reps []Representation, quality Quality) (Representation, error) {
	if len(reps) == 0 {
		return Representation{}, ErrNoRepresentation
	}

	best := reps[0]
	for _, rep := range reps[1:] {
		if quality(rep) > quality(best) {
			best = rep
		}
	}
	return best, nil
}
