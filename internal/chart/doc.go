// Package chart holds the chart sinks that playback streams into.
//
//   - [Sink]: the capability the scheduler and session depend on
//   - [Buffer]: in-memory sink used by the terminal UI and the API
//   - [Hub]: websocket sink mirroring events to browser clients
//   - [Fanout]: forwards to several sinks at once
//   - [RenderPanel]: asciigraph rendering of buffered traces
package chart
