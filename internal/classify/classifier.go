package classify

// Classifier composes the business-record exclusion with a bucketing rule.
type Classifier struct {
	Exclusion ExclusionRule
	Bucketer  Bucketer
}

// New returns a Classifier. It panics when bucketer is nil.
func New(exclusion ExclusionRule, bucketer Bucketer) Classifier {
	if bucketer == nil {
		panic("bucketer must not be nil")
	}
	return Classifier{Exclusion: exclusion, Bucketer: bucketer}
}

// Buckets returns the display order of the underlying scheme.
func (c Classifier) Buckets() []Bucket {
	return c.Bucketer.Buckets()
}

// Classify maps one record to a bucket or marks it excluded.
func (c Classifier) Classify(rec Record) Classified {
	if c.Exclusion.IsBusiness(rec) {
		return Classified{Record: rec, Excluded: true}
	}
	b, ok := c.Bucketer.Bucket(rec)
	if !ok {
		return Classified{Record: rec, Excluded: true}
	}
	return Classified{Record: rec, Bucket: b}
}

// ClassifyAll classifies every record, keeping input order.
func (c Classifier) ClassifyAll(recs []Record) []Classified {
	out := make([]Classified, len(recs))
	for i, rec := range recs {
		out[i] = c.Classify(rec)
	}
	return out
}
