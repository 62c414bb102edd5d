package search

import (
	"math"

	"github.com/fluxcapacitor2/websearch/app/database"
)

// titleWeight is how much a title occurrence counts relative to a body
// occurrence in the title-weighted model.
const titleWeight = 3.9

func scoreTFIDF(c *corpus, pageID int64, dims []string, detail map[string]float64) (float64, error) {
	total := 0.0
	for _, stem := range dims {
		tf, err := c.normTF(pageID, stem, database.VariantBody)
		if err != nil {
			return 0, err
		}
		contribution := tf * c.idf(stem, database.VariantBody)
		if contribution != 0 {
			detail[stem] = contribution
		}
		total += contribution
	}
	return total, nil
}

func scoreTitleWeighted(c *corpus, pageID int64, dims []string, detail map[string]float64) (float64, error) {
	total := 0.0
	for _, stem := range dims {
		body, err := c.normTF(pageID, stem, database.VariantBody)
		if err != nil {
			return 0, err
		}
		title, err := c.normTF(pageID, stem, database.VariantTitle)
		if err != nil {
			return 0, err
		}
		contribution := body*c.idf(stem, database.VariantBody) +
			titleWeight*title*c.idf(stem, database.VariantTitle)
		if contribution != 0 {
			detail[stem] = contribution
		}
		total += contribution
	}
	return total, nil
}

// scoreVectorSpace ranks by the cosine between the page's body TF-IDF vector
// and the query's term-frequency vector over the query stem dimensions. A
// zero-norm page or query vector scores 0 rather than dividing by zero, so
// results always land in [0, 1].
func scoreVectorSpace(c *corpus, pageID int64, dims []string, queryTF map[string]float64, detail map[string]float64) (float64, error) {
	weights := make([]float64, len(dims))
	var dot, pageNorm, queryNorm float64

	for i, stem := range dims {
		tf, err := c.normTF(pageID, stem, database.VariantBody)
		if err != nil {
			return 0, err
		}
		weight := tf * c.idf(stem, database.VariantBody)
		weights[i] = weight
		pageNorm += weight * weight

		q := queryTF[stem]
		queryNorm += q * q
		dot += q * weight
	}

	if pageNorm == 0 || queryNorm == 0 {
		return 0, nil
	}

	denominator := math.Sqrt(pageNorm) * math.Sqrt(queryNorm)
	for i, stem := range dims {
		if contribution := queryTF[stem] * weights[i] / denominator; contribution != 0 {
			detail[stem] = contribution
		}
	}
	return dot / denominator, nil
}
