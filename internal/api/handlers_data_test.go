// handlers_data_test.go - Tests for WIP data handlers
package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/floor-layout/backend/internal/models"
	"github.com/floor-layout/backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func newSpyWithData() *testutil.SpyProvider {
	spy := testutil.NewSpyProvider()
	spy.Cassettes["A-01"] = []models.Cassette{{
		CassetteID: "CST-1001",
		Position:   1,
		Wips: []models.Wip{
			{ChipID: "S10-CH100", Grade: "A", ModelNo: "TX-2024", StageID: "LITH", OpID: "OP-200"},
		},
	}}
	spy.Counts["A-01"] = 1
	return spy
}

func postBins(t *testing.T, h DataHandler, path, body string, call func(DataHandler, echo.Context) error) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return rec, call(h, e.NewContext(req, rec))
}

func TestDataHandler_EmptyBinsSkipProvider(t *testing.T) {
	calls := map[string]func(DataHandler, echo.Context) error{
		"wip":     DataHandler.HandleWip,
		"counts":  DataHandler.HandleCounts,
		"msgpack": DataHandler.HandleWipMsgpack,
	}
	for name, call := range calls {
		for _, body := range []string{`{"binCodes":[]}`, `{}`} {
			t.Run(name+" "+body, func(t *testing.T) {
				spy := newSpyWithData()
				h := NewDataHandler(spy, nil)

				rec, err := postBins(t, h, "/api/data/"+name, body, call)
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, 0, spy.Calls())
				if name != "msgpack" {
					assert.JSONEq(t, `{}`, rec.Body.String())
				}
			})
		}
	}
}

func TestDataHandler_HandleWip(t *testing.T) {
	spy := newSpyWithData()
	h := NewDataHandler(spy, nil)

	rec, err := postBins(t, h, "/api/data/wip", `{"binCodes":["A-01","B-02"]}`, DataHandler.HandleWip)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"A-01": [{"cassetteId":"CST-1001","position":1,"wips":[
			{"chipId":"S10-CH100","grade":"A","modelNo":"TX-2024","stageId":"LITH","opId":"OP-200"}
		]}],
		"B-02": []
	}`, rec.Body.String())
	assert.Equal(t, [][]string{{"A-01", "B-02"}}, spy.WipCalls)
}

func TestDataHandler_HandleWipMsgpack(t *testing.T) {
	spy := newSpyWithData()
	h := NewDataHandler(spy, nil)

	rec, err := postBins(t, h, "/api/data/wip/msgpack", `{"binCodes":["A-01","B-02"]}`, DataHandler.HandleWipMsgpack)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MIMEApplicationMsgpack, rec.Header().Get(echo.HeaderContentType))

	var decoded map[string][]models.Cassette
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
	require.Len(t, decoded["A-01"], 1)
	assert.Equal(t, "CST-1001", decoded["A-01"][0].CassetteID)
	assert.Equal(t, "S10-CH100", decoded["A-01"][0].Wips[0].ChipID)
	assert.Contains(t, decoded, "B-02")
	assert.Empty(t, decoded["B-02"])
}

func TestDataHandler_HandleCounts(t *testing.T) {
	spy := newSpyWithData()
	h := NewDataHandler(spy, nil)

	rec, err := postBins(t, h, "/api/data/counts", `{"binCodes":["A-01","Z-99"]}`, DataHandler.HandleCounts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"A-01":1,"Z-99":0}`, rec.Body.String())
}

func TestDataHandler_ProviderFailure(t *testing.T) {
	spy := newSpyWithData()
	spy.Err = testutil.ErrFake
	h := NewDataHandler(spy, nil)

	for name, call := range map[string]func(DataHandler, echo.Context) error{
		"wip":    DataHandler.HandleWip,
		"counts": DataHandler.HandleCounts,
	} {
		_, err := postBins(t, h, "/api/data/"+name, `{"binCodes":["A-01"]}`, call)
		apiErr, ok := err.(*APIError)
		require.True(t, ok, "%s: expected *APIError, got %v", name, err)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
		assert.Equal(t, "SERVICE_UNAVAILABLE", apiErr.Code)
	}
}

func TestDataHandler_MalformedBody(t *testing.T) {
	h := NewDataHandler(newSpyWithData(), nil)

	_, err := postBins(t, h, "/api/data/wip", `{"binCodes":"A-01"}`, DataHandler.HandleWip)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}
