// Package pipeline drives an event stream through one turnover tracker per
// window size.
//
// Run connects two stages with a bounded channel. The ingestion stage reads
// records from a Source, decodes them and sends the events on; it blocks when
// the channel is full and closes it once the source is exhausted. The
// aggregation stage is the channel's only consumer and the only owner of the
// trackers, the output counter and the optional ledger. When the channel is
// closed it writes the report, then reduces each tracker's history and hands
// the non-empty series to the sink.
//
// Any decode error, source error, sink error or context cancellation aborts
// the run. No report is written in that case.
package pipeline
