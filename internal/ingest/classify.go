package ingest

// Classification buckets a discovery walk's files against the hashes
// already recorded in storage.
type Classification struct {
	New       []DiscoveredFile
	Modified  []DiscoveredFile
	Unchanged []DiscoveredFile
}

// ClassifyFiles buckets files into new/modified/unchanged by
// comparing each file's content hash against existingHashes, keyed by
// relative path. A path absent from existingHashes is new; present
// with a different hash is modified; present with the same hash is
// unchanged. Reading file contents to compute the hash is the
// caller's responsibility via hashFn, so tests can stub it.
func ClassifyFiles(files []DiscoveredFile, existingHashes map[string]string, hashFn func(DiscoveredFile) (string, error)) (Classification, error) {
	var c Classification
	for _, f := range files {
		hash, err := hashFn(f)
		if err != nil {
			return Classification{}, err
		}

		existing, ok := existingHashes[f.RelativePath]
		switch {
		case !ok:
			c.New = append(c.New, f)
		case existing != hash:
			c.Modified = append(c.Modified, f)
		default:
			c.Unchanged = append(c.Unchanged, f)
		}
	}
	return c, nil
}

// FindDeletedDocuments returns every relative path present in
// existingHashes but absent from the current file set.
func FindDeletedDocuments(files []DiscoveredFile, existingHashes map[string]string) []string {
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.RelativePath] = true
	}

	var deleted []string
	for path := range existingHashes {
		if !present[path] {
			deleted = append(deleted, path)
		}
	}
	return deleted
}
