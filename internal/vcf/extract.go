package vcf

import "fmt"

// Call is one sample's genotype at one position.
type Call struct {
	Sample string
	Pos    int64
	Ref    string
	Allele string // Called allele after LastAllele normalization
	NoCall bool   // Genotype could not be determined; Allele is empty
}

// Extract reads every record from r and returns the calls at positions
// accepted by keep, in file order (record by record, then sample by
// sample). No-calls are returned with NoCall set so that callers still see
// the sample; they never carry an allele.
func Extract(r RecordReader, keep func(pos int64) bool) ([]Call, error) {
	samples := r.SampleNames()

	var calls []Call
	for {
		rec, err := r.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		if !keep(rec.Pos) {
			continue
		}

		alleles := rec.Alleles()
		for i := range rec.Samples {
			allele, ok, err := ResolveGenotype(rec.GT(i), alleles)
			if err != nil {
				return nil, &ParseError{
					Line:    r.LineNumber(),
					Message: fmt.Sprintf("sample %s: %v", samples[i], err),
				}
			}

			c := Call{Sample: samples[i], Pos: rec.Pos, Ref: rec.Ref, NoCall: !ok}
			if ok {
				c.Allele = LastAllele(allele)
			}
			calls = append(calls, c)
		}
	}

	return calls, nil
}
