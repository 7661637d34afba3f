package hubapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/taxbase/metricshub/internal/utils"
	"github.com/taxbase/metricshub/metrics"
)

// catalogEntry tolerates both catalog shapes the backend has served over
// time: "caminho" (the storage path doubling as the period ID) or "id".
type catalogEntry struct {
	ID      string `json:"id"`
	Caminho string `json:"caminho"`
	Display string `json:"display"`
	MesRaw  int    `json:"mes_raw"`
}

// recordsPayload tolerates the three envelope keys the record endpoints
// have used.
type recordsPayload struct {
	Records   []metrics.Record `json:"records"`
	Registros []metrics.Record `json:"registros"`
	Data      []metrics.Record `json:"data"`
}

func (p recordsPayload) records() []metrics.Record {
	switch {
	case p.Records != nil:
		return p.Records
	case p.Registros != nil:
		return p.Registros
	case p.Data != nil:
		return p.Data
	default:
		return []metrics.Record{}
	}
}

// ListMonths fetches the period catalog: year → ordered periods.
func (c *Client) ListMonths(ctx context.Context) (metrics.Catalog, error) {
	var out struct {
		Data map[string][]catalogEntry `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/data/list_months", nil, &out, requestOptions{}); err != nil {
		return nil, errors.Wrap(err, "[Client.ListMonths]")
	}

	catalog := make(metrics.Catalog, len(out.Data))
	for year, entries := range out.Data {
		periods := make([]metrics.Period, 0, len(entries))
		for _, e := range entries {
			periods = append(periods, metrics.Period{
				ID:       utils.FirstNonEmpty(e.Caminho, e.ID),
				Display:  e.Display,
				RawMonth: e.MesRaw,
			})
		}
		catalog[year] = periods
	}
	return catalog, nil
}

// GetMonth fetches the raw records of a single period.
func (c *Client) GetMonth(ctx context.Context, periodID string) ([]metrics.Record, error) {
	var out recordsPayload
	path := "/api/data/get_month/" + url.PathEscape(periodID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, requestOptions{}); err != nil {
		return nil, errors.Wrap(err, "[Client.GetMonth]")
	}
	return out.records(), nil
}

// GetPeriod fetches the raw records of several periods in one batch call.
func (c *Client) GetPeriod(ctx context.Context, periodIDs []string) ([]metrics.Record, error) {
	body := map[string][]string{"months": periodIDs}

	var out recordsPayload
	if err := c.doJSON(ctx, http.MethodPost, "/api/data/get_period", body, &out, requestOptions{}); err != nil {
		return nil, errors.Wrap(err, "[Client.GetPeriod]")
	}
	return out.records(), nil
}

// FetchRecords fetches periodIDs using the cheapest shape: the single
// period endpoint for one ID, the batch endpoint otherwise. An empty list
// yields no records and no network call.
func (c *Client) FetchRecords(ctx context.Context, periodIDs []string) ([]metrics.Record, error) {
	switch len(periodIDs) {
	case 0:
		return []metrics.Record{}, nil
	case 1:
		return c.GetMonth(ctx, periodIDs[0])
	default:
		return c.GetPeriod(ctx, periodIDs)
	}
}

// GetDepartments reads the analyst→department mapping.
func (c *Client) GetDepartments(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.doJSON(ctx, http.MethodGet, "/api/departments", nil, &out, requestOptions{}); err != nil {
		return nil, errors.Wrap(err, "[Client.GetDepartments]")
	}
	return out, nil
}

// UpdateDepartment persists one analyst's department on the backend.
func (c *Client) UpdateDepartment(ctx context.Context, analyst, department string) error {
	body := map[string]string{"analyst": analyst, "department": department}
	if err := c.doJSON(ctx, http.MethodPost, "/api/departments", body, nil, requestOptions{}); err != nil {
		return errors.Wrap(err, "[Client.UpdateDepartment]")
	}
	return nil
}

// ListAnalysts returns every analyst name known across all periods.
func (c *Client) ListAnalysts(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.doJSON(ctx, http.MethodGet, "/api/departments/analysts", nil, &out, requestOptions{}); err != nil {
		return nil, errors.Wrap(err, "[Client.ListAnalysts]")
	}
	return out, nil
}

// GetLabels reads all month-label annotations.
func (c *Client) GetLabels(ctx context.Context) (map[string]string, error) {
	var out struct {
		Labels map[string]string `json:"labels"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/labels", nil, &out, requestOptions{}); err != nil {
		return nil, errors.Wrap(err, "[Client.GetLabels]")
	}
	return out.Labels, nil
}

// SetLabel writes (or, with an empty label, clears) one period's label.
func (c *Client) SetLabel(ctx context.Context, periodKey, label string) error {
	body := map[string]string{"label": label}
	path := "/api/labels/" + url.PathEscape(periodKey)
	if err := c.doJSON(ctx, http.MethodPut, path, body, nil, requestOptions{}); err != nil {
		return errors.Wrap(err, "[Client.SetLabel]")
	}
	return nil
}
