package report

import (
	"strconv"

	"github.com/goliatone/go-tasador/pkg/api"
	"github.com/goliatone/go-tasador/pkg/model"
)

// Badge tones map to palette tokens.
const (
	ToneSuccess = "success"
	ToneInfo    = "info"
	ToneWarning = "warning"
	ToneError   = "error"
	ToneNeutral = "neutral"
)

// PaybackCutoff is the payback period from which the backend means "never".
const PaybackCutoff = 999

// Badge is a short label with a tone and an optional sentence.
type Badge struct {
	Label  string `json:"label"`
	Tone   string `json:"tone"`
	Detail string `json:"detail,omitempty"`
}

// InputRow is one submitted value as shown to the user.
type InputRow struct {
	Column string `json:"column"`
	Label  string `json:"label"`
	Value  string `json:"value"`
}

// Factor is an important factor with its impact percentage.
type Factor struct {
	Name   string  `json:"name"`
	Impact float64 `json:"impact"`
}

// RiskItem is a risk factor and the badge for its impact.
type RiskItem struct {
	Name  string `json:"name"`
	Badge Badge  `json:"badge"`
}

// View is the template data for a report. The engine reads it through its
// JSON form, so templates use the json names.
type View struct {
	ExperimentID string                `json:"experiment_id"`
	Model        string                `json:"model"`
	Target       string                `json:"target"`
	Inputs       []InputRow            `json:"inputs"`
	Result       *api.PredictionResult `json:"result"`
	Trend        Badge                 `json:"trend"`
	Demand       Badge                 `json:"demand"`
	Risk         Badge                 `json:"risk"`
	RiskFactors  []RiskItem            `json:"risk_factors"`
	Factors      []Factor              `json:"factors"`
	Payback      string                `json:"payback"`
	Theme        string                `json:"theme"`
	Variant      string                `json:"variant"`
	Palette      map[string]string     `json:"palette"`
}

// Input bundles what a report is built from.
type Input struct {
	Form   model.FormModel
	Values map[string]string
	Result *api.PredictionResult
}

// NewView derives the display values for in. The result must be set.
func NewView(in Input) View {
	result := in.Result
	if result == nil {
		result = &api.PredictionResult{}
	}

	view := View{
		ExperimentID: in.Form.ExperimentID,
		Model:        in.Form.ExperimentName,
		Target:       in.Form.Target,
		Result:       result,
		Trend:        TrendBadge(result.TendenciaPrecio),
		Demand:       DemandBadge(result.TiempoVenta.NivelDemanda),
		Risk: Badge{
			Label: result.RiesgoInversion.NivelRiesgo,
			Tone:  RiskTone(result.RiesgoInversion.ColorRiesgo),
		},
		Payback: Payback(result.RentabilidadAlquiler.AnosRecuperacion),
	}
	if view.Model == "" {
		view.Model = view.ExperimentID
	}

	for _, field := range in.Form.Fields {
		raw := in.Values[field.Name]
		display := raw
		if label, ok := field.OptionLabel(raw); ok && !field.Numeric() {
			display = label
		}
		view.Inputs = append(view.Inputs, InputRow{Column: field.Name, Label: field.Label, Value: display})
	}
	for _, factor := range result.FactoresImportantes {
		view.Factors = append(view.Factors, Factor{Name: factor.Nombre, Impact: factor.Impacto})
	}
	for _, risk := range result.RiesgoInversion.FactoresRiesgo {
		view.RiskFactors = append(view.RiskFactors, RiskItem{Name: risk.Factor, Badge: ImpactBadge(risk.Impacto)})
	}
	return view
}

// TrendBadge labels the backend's price trend.
func TrendBadge(trend string) Badge {
	switch trend {
	case "subida":
		return Badge{Label: "En Alza", Tone: ToneSuccess, Detail: "El precio tiende a incrementar en esta zona"}
	case "bajada":
		return Badge{Label: "En Baja", Tone: ToneError, Detail: "El precio tiende a disminuir en esta zona"}
	default:
		return Badge{Label: "Estable", Tone: ToneWarning, Detail: "El precio se mantiene estable en esta zona"}
	}
}

// DemandBadge colours the demand level.
func DemandBadge(level string) Badge {
	tone := ToneError
	switch level {
	case "Alta":
		tone = ToneSuccess
	case "Media-Alta":
		tone = ToneInfo
	case "Media":
		tone = ToneWarning
	}
	return Badge{Label: level, Tone: tone}
}

// RiskTone accepts the backend's colour hint, falling back to error.
func RiskTone(color string) string {
	switch color {
	case ToneSuccess, ToneInfo, ToneWarning:
		return color
	default:
		return ToneError
	}
}

// ImpactBadge labels the impact of a risk factor.
func ImpactBadge(impact string) Badge {
	switch impact {
	case "positivo":
		return Badge{Label: "✓ Positivo", Tone: ToneSuccess}
	case "negativo":
		return Badge{Label: "✗ Negativo", Tone: ToneError}
	default:
		return Badge{Label: "− Neutral", Tone: ToneNeutral}
	}
}

// Payback renders the payback period in years, or "N/A" at or beyond
// PaybackCutoff.
func Payback(years float64) string {
	if years >= PaybackCutoff {
		return "N/A"
	}
	return strconv.FormatFloat(years, 'f', -1, 64) + " años"
}
