package detector

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/biguard/biguard/internal/model"
)

// Signal weights. The statistical signals are deliberately weak relative
// to the rule-based ones: a transaction needs corroborating evidence to
// cross the blocking threshold on pattern alone.
const (
	ensembleWeight         = 0.3
	clusterWeight          = 0.3
	highAmountWeight       = 1.5
	borderlineAmountWeight = 0.5
	borderlineAmountRatio  = 0.8
	legitimateCredit       = 0.5
	highRiskKeywordWeight  = 2.0

	blockThreshold        = 1.0
	highSeverityThreshold = 2.0
)

// Human-readable verdict reasons.
const (
	reasonPattern  = "Unusual transaction pattern"
	reasonCluster  = "Transaction outside normal clusters"
	reasonHighRisk = "High-risk merchant or category"
)

// Scorer combines statistical outlier signals with rule-based heuristics
// into a composite severity verdict. It holds no mutable state and is
// safe for concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the given thresholds.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score produces the verdict for one transaction. ensembleOutlier and
// clusterNoise are the statistical signals computed against the loaded
// model; the rule-based signals are derived from the transaction itself.
//
// A verdict below the blocking threshold is returned with Blocked false
// and SeverityNone so callers can still observe the score; it is never
// persisted.
func (s *Scorer) Score(txn *model.Transaction, ensembleOutlier, clusterNoise bool) model.AnomalyVerdict {
	score := 0.0
	var reasons []string
	magnitude := txn.Magnitude()

	if ensembleOutlier {
		score += ensembleWeight
		reasons = append(reasons, reasonPattern)
	}
	if clusterNoise {
		score += clusterWeight
		reasons = append(reasons, reasonCluster)
	}

	switch {
	case magnitude > s.cfg.HighAmountThreshold:
		score += highAmountWeight
		reasons = append(reasons, fmt.Sprintf("High amount ($%s)", formatAmount(magnitude)))
	case magnitude > s.cfg.HighAmountThreshold*borderlineAmountRatio:
		score += borderlineAmountWeight
	}

	// Credit typically-legitimate categories before the keyword override
	// so that keyword matches always land at or above the high band.
	if s.isLegitimateCategory(txn.Category) && magnitude < s.cfg.HighAmountThreshold {
		score -= legitimateCredit
		if score < 0 {
			score = 0
		}
	}

	if s.matchesHighRiskKeyword(txn) {
		score += highRiskKeywordWeight
		reasons = append(reasons, reasonHighRisk)
	}

	verdict := model.AnomalyVerdict{
		TransactionID:   txn.ID,
		TransactionName: txn.Name,
		Amount:          txn.Amount,
		Category:        txn.Category,
		Score:           score,
		Severity:        model.SeverityNone,
		Reasons:         reasons,
		DetectedAt:      time.Now().UTC(),
	}

	if score >= blockThreshold {
		verdict.Blocked = true
		// The low tier is unreachable with the current bands; everything
		// at or above the blocking threshold is medium or high.
		if score >= highSeverityThreshold {
			verdict.Severity = model.SeverityHigh
		} else {
			verdict.Severity = model.SeverityMedium
		}
	}

	return verdict
}

func (s *Scorer) isLegitimateCategory(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	for _, legit := range s.cfg.LegitimateCategories {
		if category == legit {
			return true
		}
	}
	return false
}

func (s *Scorer) matchesHighRiskKeyword(txn *model.Transaction) bool {
	name := strings.ToLower(txn.Name)
	category := strings.ToLower(txn.Category)
	for _, keyword := range s.cfg.HighRiskKeywords {
		if strings.Contains(name, keyword) || strings.Contains(category, keyword) {
			return true
		}
	}
	return false
}

// formatAmount renders a magnitude as a grouped dollar figure, e.g.
// 12500 -> "12,500.00".
func formatAmount(magnitude float64) string {
	text := strconv.FormatFloat(magnitude, 'f', 2, 64)
	parts := strings.SplitN(text, ".", 2)

	whole := parts[0]
	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}
	return grouped.String() + "." + parts[1]
}
