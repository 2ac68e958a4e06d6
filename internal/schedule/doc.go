// Package schedule exports a rolling window of the agenda on a cron
// schedule. Each run writes agenda_<start>_a_<end>.<format> into the
// configured output directory; a window without events writes nothing.
package schedule
