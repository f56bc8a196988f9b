package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/metrics"
	"github.com/san-kum/xenonsim/internal/storage"
)

func registerChartHandlers(api huma.API, svc Service) {
	type chartOutput struct {
		Body struct {
			Traces []chart.Trace `json:"traces"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "get-chart", Method: http.MethodGet, Path: "/api/v1/chart", Summary: "Every point rendered so far", Tags: []string{"Chart"}},
		func(ctx context.Context, input *struct{}) (*chartOutput, error) {
			out := &chartOutput{}
			out.Body.Traces = svc.Chart()
			return out, nil
		})

	type extremesOutput struct {
		Body struct {
			Series []metrics.Extreme `json:"series"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "get-extremes", Method: http.MethodGet, Path: "/api/v1/chart/extremes", Summary: "Largest and smallest value of each series so far", Tags: []string{"Chart"}},
		func(ctx context.Context, input *struct{}) (*extremesOutput, error) {
			out := &extremesOutput{}
			out.Body.Series = svc.Extremes()
			return out, nil
		})

	type exportOutput struct {
		Body *storage.ExportMetadata
	}

	huma.Register(api, huma.Operation{OperationID: "create-export", Method: http.MethodPost, Path: "/api/v1/exports", Summary: "Save the current chart to disk", Tags: []string{"Chart"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *struct{}) (*exportOutput, error) {
			meta, err := svc.SaveExport()
			if err != nil {
				return nil, mapErr(err)
			}
			return &exportOutput{Body: meta}, nil
		})

	type listExportsOutput struct {
		Body struct {
			Exports []storage.ExportMetadata `json:"exports"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "list-exports", Method: http.MethodGet, Path: "/api/v1/exports", Summary: "List saved chart exports", Tags: []string{"Chart"}},
		func(ctx context.Context, input *struct{}) (*listExportsOutput, error) {
			exports, err := svc.ListExports()
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listExportsOutput{}
			out.Body.Exports = exports
			return out, nil
		})
}
