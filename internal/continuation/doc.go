// Package continuation requests additional simulated data from the solver.
//
// The solver is reached over HTTP:
//
//	GET /simulation?time=&state=&lastTime=&lastIodine=&lastXenon=&lastPromethium=&lastSamarium=&phi_0=
//	GET /equilibrium?phi_0=
//
// Every failure past local validation is reported as [ErrFailed]; a
// response is either a complete, continuous dataset or nothing.
package continuation
