package report

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// sanitizeText strips markup from backend strings and escapes the rest, so
// the HTML template can print them as safe.
func sanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return textSanitizer().Sanitize(raw)
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

func sanitizeBadge(b Badge) Badge {
	return Badge{Label: sanitizeText(b.Label), Tone: b.Tone, Detail: sanitizeText(b.Detail)}
}

// sanitizeView returns a copy of v with every free-text field sanitized.
func sanitizeView(v View) View {
	out := v
	out.ExperimentID = sanitizeText(v.ExperimentID)
	out.Model = sanitizeText(v.Model)
	out.Target = sanitizeText(v.Target)
	out.Trend = sanitizeBadge(v.Trend)
	out.Demand = sanitizeBadge(v.Demand)
	out.Risk = sanitizeBadge(v.Risk)
	out.Payback = sanitizeText(v.Payback)

	out.Inputs = make([]InputRow, len(v.Inputs))
	for i, row := range v.Inputs {
		out.Inputs[i] = InputRow{
			Column: sanitizeText(row.Column),
			Label:  sanitizeText(row.Label),
			Value:  sanitizeText(row.Value),
		}
	}
	out.Factors = make([]Factor, len(v.Factors))
	for i, factor := range v.Factors {
		out.Factors[i] = Factor{Name: sanitizeText(factor.Name), Impact: factor.Impact}
	}
	out.RiskFactors = make([]RiskItem, len(v.RiskFactors))
	for i, item := range v.RiskFactors {
		out.RiskFactors[i] = RiskItem{Name: sanitizeText(item.Name), Badge: sanitizeBadge(item.Badge)}
	}
	return out
}
