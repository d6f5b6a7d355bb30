package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/intervention-engine/cvrisk/record"
	"github.com/intervention-engine/cvrisk/service"
	"github.com/intervention-engine/cvrisk/trend"
)

// RiskService is what the routes need from the risk service: assessment plus
// access to each subject's history.
type RiskService interface {
	service.RiskService
	History(ctx context.Context, subject string, limit int) (*trend.Series, error)
	Record(ctx context.Context, subject string, res *service.RiskResult) error
	ModelInfo() service.ModelInfo
}

// MaxBatchSize is the largest number of records /assess/batch accepts.
const MaxBatchSize = 100

// BatchResponse holds one result per submitted record, in submission order.
type BatchResponse struct {
	Count   int                   `json:"count"`
	Results []*service.RiskResult `json:"results"`
}

// HistoryResponse lists a subject's snapshots, most recent first.
type HistoryResponse struct {
	Subject   string           `json:"subject"`
	Count     int              `json:"count"`
	Snapshots []trend.Snapshot `json:"snapshots"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes sets up the http request handlers with Echo
func RegisterRoutes(e *echo.Echo, rs RiskService, gatherer prometheus.Gatherer, fnDelayer *FunctionDelayer, logger *zap.Logger) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	e.POST("/assess", func(c echo.Context) error {
		rec := &record.PatientRecord{}
		if err := c.Bind(rec); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{"invalid patient record: " + err.Error()})
		}
		res, err := rs.Assess(c.Request().Context(), rec)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorResponse{err.Error()})
		}
		return c.JSON(http.StatusOK, res)
	})

	e.POST("/assess/batch", func(c echo.Context) error {
		var recs []*record.PatientRecord
		if err := c.Bind(&recs); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{"invalid patient records: " + err.Error()})
		}
		if len(recs) == 0 || len(recs) > MaxBatchSize {
			return c.JSON(http.StatusBadRequest, errorResponse{fmt.Sprintf("a batch holds 1 to %d records", MaxBatchSize)})
		}
		resp := BatchResponse{Count: len(recs), Results: make([]*service.RiskResult, len(recs))}
		for i, rec := range recs {
			if rec == nil {
				return c.JSON(http.StatusBadRequest, errorResponse{fmt.Sprintf("record %d is empty", i)})
			}
			res, err := rs.Assess(c.Request().Context(), rec)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, errorResponse{fmt.Sprintf("record %d: %v", i, err)})
			}
			resp.Results[i] = res
		}
		return c.JSON(http.StatusOK, resp)
	})

	e.GET("/model-info", func(c echo.Context) error {
		return c.JSON(http.StatusOK, rs.ModelInfo())
	})

	e.POST("/subjects/:id/assess", func(c echo.Context) error {
		subject := c.Param("id")
		rec := &record.PatientRecord{}
		if err := c.Bind(rec); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{"invalid patient record: " + err.Error()})
		}
		rec.SubjectID = subject

		ctx := c.Request().Context()
		series, err := rs.History(ctx, subject, 0)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorResponse{err.Error()})
		}
		res, err := rs.AssessWithHistory(ctx, rec, series)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorResponse{err.Error()})
		}
		// Repeated submissions for a subject within the delay record only the
		// latest result.
		fnDelayer.Delay(subject, func() {
			if err := rs.Record(context.Background(), subject, res); err != nil {
				logger.Error("recording assessment failed", zap.String("subject", subject), zap.Error(err))
			}
		})
		return c.JSON(http.StatusOK, res)
	})

	e.GET("/subjects/:id/history", func(c echo.Context) error {
		subject := c.Param("id")
		limit := 0
		if q := c.QueryParam("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n < 0 {
				return c.JSON(http.StatusBadRequest, errorResponse{"limit must be a non-negative integer"})
			}
			limit = n
		}
		series, err := rs.History(c.Request().Context(), subject, limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorResponse{err.Error()})
		}
		if series.Len() == 0 {
			return c.JSON(http.StatusNotFound, errorResponse{"no history for subject " + subject})
		}
		snaps := series.Latest(limit)
		return c.JSON(http.StatusOK, HistoryResponse{Subject: subject, Count: len(snaps), Snapshots: snaps})
	})
}
