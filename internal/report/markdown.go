package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/checker"
	sharedErrors "github.com/khanhnv2901/cyberaudit/internal/shared/errors"
)

const markdownTemplate = `# Security Audit Report: {{ .Result.Domain }}

**{{ .Brand }}** · Ref: {{ .Reference }} · Generated {{ .Generated }}

| Score | Rating |
|-------|--------|
| {{ .Result.Score }} / 100 | {{ upper .Rating }} |

## Technical Analysis

| Check | Status | Result |
|-------|--------|--------|
{{- range .Findings }}
| {{ .Check }} | {{ .Status }} | {{ .Detail }} |
{{- end }}
{{ if .Recommendations }}
## Recommendations
{{ range .Recommendations }}
- {{ . }}
{{- end }}
{{ end }}
---
_{{ .Disclaimer }}_
`

var mdTmpl = template.Must(template.New("markdown").Funcs(template.FuncMap{
	"upper": func(r checker.Rating) string { return strings.ToUpper(string(r)) },
}).Parse(markdownTemplate))

type markdownData struct {
	Brand           string
	Reference       string
	Generated       string
	Rating          checker.Rating
	Result          checker.ScanResult
	Findings        []checker.Finding
	Recommendations []string
	Disclaimer      string
}

// RenderMarkdown renders the same content as RenderPDF as a Markdown document.
func RenderMarkdown(result checker.ScanResult, opts Options) (string, error) {
	generated := opts.now()
	rating := result.Rating
	if rating == "" {
		rating = checker.RatingFor(result.Score)
	}

	findings := checker.Findings(result)
	var recs []string
	for _, f := range findings {
		if f.Recommendation != "" {
			recs = append(recs, fmt.Sprintf("%s: %s", f.Check, f.Recommendation))
		}
	}

	data := markdownData{
		Brand:           opts.brand(),
		Reference:       Reference(generated),
		Generated:       generated.Format(time.RFC3339),
		Rating:          rating,
		Result:          result,
		Findings:        findings,
		Recommendations: recs,
		Disclaimer:      disclaimer,
	}

	var buf bytes.Buffer
	if err := mdTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrReportFailed, err)
	}
	return buf.String(), nil
}
