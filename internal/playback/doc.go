// Package playback animates a dataset into a chart sink frame by frame.
//
// A [Scheduler] owns at most one run. Each run waits one baseline frame,
// then on every frame where at least [Interval] has passed since the last
// emission it appends the next [BatchSize] points of every series as one
// batch. Both values derive from the live speed control:
//
//	interval = max(1ms, e^(4 - speed/50))
//	batch    = max(1, floor(1000 / interval))
//
// Frames come from a [FrameDriver]. [ManualDriver] queues callbacks until
// the host fires a frame; [TickerDriver] fires it from a time.Ticker.
package playback
