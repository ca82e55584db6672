package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"flip-analyzer/models"
	"flip-analyzer/services"
	"flip-analyzer/utils"
)

const (
	listingsCSV = `MLS #,Status,Area,Address,County,City,Zip,Sub,Bedrooms,Full Baths,Total Finished SF,List Price,List Dt
L1,Active,North,1 Elm St,Jackson,Kansas City,64111,Brookside,3,2,1500,200000,2024-05-01
L2,Active,South,2 Elm St,Clay,Liberty,64068,Oak Hill,3,2,1500,250000,2024-05-02
`
	compsCSV = `MLS #,Status,Area,Address,County,City,Zip,Sub,Bedrooms,Full Baths,Total Finished SF,Sale Price,Close Dt
C1,Sold,North,10 Oak St,Jackson,Kansas City,64111,Brookside,3,2,1450,230000,2024-01-10
C2,Sold,North,11 Oak St,Jackson,Kansas City,64111,Brookside,4,2,1480,250000,2024-01-11
`
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	logger := utils.NewNopLogger()
	return NewServer(services.NewAnalyzer(logger), models.DefaultCriteria(), logger)
}

func multipartRequest(t *testing.T, path string, files map[string]string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, content := range files {
		part, err := w.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type analyzeResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  ErrorDetail     `json:"error"`
}

func decode(t *testing.T, resp *http.Response) analyzeResponse {
	t.Helper()
	var out analyzeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	s := setupServer(t)
	resp, err := s.App().Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestAnalyze(t *testing.T) {
	s := setupServer(t)
	req := multipartRequest(t, "/api/v1/analyze",
		map[string]string{"listings": listingsCSV, "comps": compsCSV},
		map[string]string{"group_by": "county", "selected": "L1, L9"})

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, statusSuccess, body.Status)

	var a struct {
		GroupBy string `json:"group_by"`
		Summary []struct {
			Group         string `json:"group"`
			ListingsCount int    `json:"listings_count"`
		} `json:"summary"`
		Ranked []struct {
			Rank         int      `json:"rank"`
			PriceDiffPct *float64 `json:"price_diff_pct"`
			Listing      struct {
				ID string `json:"mls"`
			} `json:"listing"`
		} `json:"ranked"`
		Details  []json.RawMessage `json:"details"`
		Warnings []struct {
			RecordID string `json:"record_id"`
		} `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &a))

	assert.Equal(t, "County", a.GroupBy)
	require.Len(t, a.Summary, 2)
	require.Len(t, a.Ranked, 2)
	assert.Equal(t, "L1", a.Ranked[0].Listing.ID)
	require.NotNil(t, a.Ranked[0].PriceDiffPct)
	assert.InDelta(t, 15.0, *a.Ranked[0].PriceDiffPct, 1e-9)
	assert.Nil(t, a.Ranked[1].PriceDiffPct, "no comps means a null percentage")
	assert.Len(t, a.Details, 1)
	require.Len(t, a.Warnings, 1)
	assert.Equal(t, "L9", a.Warnings[0].RecordID)
}

func TestAnalyzeMissingFile(t *testing.T) {
	s := setupServer(t)
	req := multipartRequest(t, "/api/v1/analyze", map[string]string{"listings": listingsCSV}, nil)

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "comps file is required", decode(t, resp).Error.Message)
}

func TestAnalyzeSchemaError(t *testing.T) {
	s := setupServer(t)
	req := multipartRequest(t, "/api/v1/analyze",
		map[string]string{"listings": listingsCSV, "comps": "MLS #,Sale Price\nC1,1\n"}, nil)

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
	assert.Contains(t, decode(t, resp).Error.Message, "status")
}

func TestAnalyzeRejectsBadCriteria(t *testing.T) {
	s := setupServer(t)
	files := map[string]string{"listings": listingsCSV, "comps": compsCSV}

	for _, fields := range []map[string]string{
		{"sf_range_pct": "80"},
		{"sf_range_pct": "wide"},
		{"same_zip": "maybe"},
		{"group_by": "state"},
	} {
		resp, err := s.App().Test(multipartRequest(t, "/api/v1/analyze", files, fields), -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode, "fields %v", fields)
	}
}

func TestAnalyzeXLSX(t *testing.T) {
	s := setupServer(t)
	req := multipartRequest(t, "/api/v1/analyze/xlsx",
		map[string]string{"listings": listingsCSV, "comps": compsCSV},
		map[string]string{"selected": "L1"})

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "flip_analysis_")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Flip Details")
}
