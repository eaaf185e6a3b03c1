package connector

import (
	"fmt"
	"net/http"

	"github.com/anmolkh/internradar/internal/model"
)

// ForSource returns the connector for the given provider. Dispatch is on the
// closed Source enum only. preFilter is passed to connectors that use it to
// bound per-posting detail fetches; nil disables pre-filtering.
func ForSource(source model.Source, client *http.Client, preFilter model.Classifier) (model.Connector, error) {
	switch source {
	case model.SourceGreenhouse:
		return NewGreenhouse(client), nil
	case model.SourceLever:
		return NewLever(client), nil
	case model.SourceAshby:
		return NewAshby(client), nil
	case model.SourceSmartRecruiters:
		return NewSmartRecruiters(client, preFilter), nil
	case model.SourceRecruitee:
		return NewRecruitee(client), nil
	default:
		return nil, fmt.Errorf("unsupported source %q", source)
	}
}
