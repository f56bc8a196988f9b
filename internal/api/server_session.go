package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/san-kum/xenonsim/internal/series"
	"github.com/san-kum/xenonsim/internal/session"
)

type stateOutput struct {
	Body session.State
}

type equilibriumOutput struct {
	Body *series.Equilibrium
}

func registerSessionHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "get-session", Method: http.MethodGet, Path: "/api/v1/session", Summary: "Get session state", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*stateOutput, error) {
			return &stateOutput{Body: svc.State()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "extend-session", Method: http.MethodPost, Path: "/api/v1/session/extend", Summary: "Extend the simulation", Description: "Requests a continuation from the last known point and starts playing it. A running playback is replaced.", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Days float64 `json:"days" doc:"Simulation time to add, in days"`
			}
		}) (*stateOutput, error) {
			if err := svc.Extend(ctx, input.Body.Days); err != nil {
				return nil, mapErr(err)
			}
			return &stateOutput{Body: svc.State()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "reset-session", Method: http.MethodPost, Path: "/api/v1/session/reset", Summary: "Reset the session", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*stateOutput, error) {
			svc.Reset()
			return &stateOutput{Body: svc.State()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "initialize-session", Method: http.MethodPost, Path: "/api/v1/session/initialize", Summary: "Set the full-power flux and reset", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Phi0 float64 `json:"phi_0" doc:"Full-power neutron flux"`
			}
		}) (*equilibriumOutput, error) {
			eq, err := svc.Initialize(ctx, input.Body.Phi0)
			if err != nil {
				return nil, mapErr(err)
			}
			return &equilibriumOutput{Body: eq}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-controls", Method: http.MethodPut, Path: "/api/v1/controls", Summary: "Update power, speed or flux", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Power *float64 `json:"power,omitempty" doc:"Reactor power fraction in [0,1]"`
				Speed *float64 `json:"speed,omitempty" doc:"Animation speed in [0,100]"`
				Phi0  *float64 `json:"phi_0,omitempty" doc:"Full-power neutron flux"`
			}
		}) (*stateOutput, error) {
			if err := svc.SetControls(input.Body.Power, input.Body.Speed, input.Body.Phi0); err != nil {
				return nil, mapErr(err)
			}
			return &stateOutput{Body: svc.State()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-equilibrium", Method: http.MethodGet, Path: "/api/v1/equilibrium", Summary: "Equilibrium and post-shutdown extremum values", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct {
			Phi0 float64 `query:"phi_0" doc:"Full-power flux. Omit to use the session's."`
		}) (*equilibriumOutput, error) {
			phi0 := input.Phi0
			if phi0 == 0 {
				phi0 = svc.State().Phi0
			}
			eq, err := svc.Equilibrium(ctx, phi0)
			if err != nil {
				return nil, mapErr(err)
			}
			return &equilibriumOutput{Body: eq}, nil
		})
}
