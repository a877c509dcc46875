package backend

import (
	"context"
	"strconv"
)

func (c *Client) ListReports(ctx context.Context, token string, projectID int64) ([]Report, error) {
	body, err := c.get(ctx, "/reports/get_reports", projectQuery(projectID), token, "Failed to fetch reports!")
	if err != nil {
		return nil, err
	}
	return decodeList[Report](body, "reports")
}

func (c *Client) GenerateReport(ctx context.Context, token, reportName, createdBy string, projectID int64) (*Report, error) {
	fields := []formField{
		{"report_name", reportName},
		{"created_by", createdBy},
		{"project_id", strconv.FormatInt(projectID, 10)},
	}
	body, err := c.postMultipart(ctx, "/reports/generate_report", token, fields, nil, "Failed to generate report!")
	if err != nil {
		return nil, err
	}
	r := &Report{}
	if !decodeOptional(body, r) {
		return nil, nil
	}
	return r, nil
}

func (c *Client) DeleteReport(ctx context.Context, token string, id int64) error {
	return c.delete(ctx, idPath("/reports/delete_report/", id), token, "Failed to delete report!")
}
