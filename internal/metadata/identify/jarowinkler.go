package identify

// JaroWinkler returns the Jaro-Winkler similarity of a and b in [0, 1].
// No library in the dependency set implements string-similarity
// scoring, so this is a small stdlib-only implementation of the
// standard algorithm (Jaro distance plus a common-prefix boost).
func JaroWinkler(a, b string) float64 {
	jaro := jaroDistance(a, b)
	if jaro == 0 {
		return 0
	}

	prefixLen := 0
	maxPrefix := 4
	for i := 0; i < len(a) && i < len(b) && i < maxPrefix; i++ {
		if a[i] != b[i] {
			break
		}
		prefixLen++
	}

	const scalingFactor = 0.1
	return jaro + float64(prefixLen)*scalingFactor*(1-jaro)
}

func jaroDistance(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}

	matchDist := max(la, lb)/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}

	aMatches := make([]bool, la)
	bMatches := make([]bool, lb)

	matches := 0
	for i := 0; i < la; i++ {
		start := max(0, i-matchDist)
		end := min(i+matchDist+1, lb)
		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < la; i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}
	transpositions /= 2

	m := float64(matches)
	return (m/float64(la) + m/float64(lb) + (m-float64(transpositions))/m) / 3
}
