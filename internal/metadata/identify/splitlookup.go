package identify

import "context"

// Lookup resolves one free-form name to candidate MusicBrainz ids,
// the shape every C7 identify provider's single-name network/cache
// call already has.
type Lookup func(ctx context.Context, name string) ([]string, error)

// SplitLookup implements §4.7's multi-artist handling on top of a
// provider's single-name lookup: if the primary lookup against the
// whole name returns more than one candidate id, the name is split
// into fragments and each fragment is looked up individually. The
// fragment results are combined; partial reports whether at least one
// fragment resolved but not every fragment did. A primary lookup that
// already returns 0 or 1 ids, or a name with no splittable fragments,
// is returned unchanged.
func SplitLookup(ctx context.Context, name string, lookup Lookup) (ids []string, partial bool, err error) {
	primary, err := lookup(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if len(primary) <= 1 {
		return primary, false, nil
	}

	fragments := Split(name)
	if len(fragments) <= 1 {
		return primary, false, nil
	}

	var combined []string
	resolved := 0
	for _, fragment := range fragments {
		found, ferr := lookup(ctx, fragment)
		if ferr != nil || len(found) == 0 {
			continue
		}
		resolved++
		combined = append(combined, found...)
	}
	if resolved == 0 {
		return primary, false, nil
	}
	return combined, resolved < len(fragments), nil
}
