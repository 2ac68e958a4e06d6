// Package calendar fetches events from one Google Calendar over a date range.
//
// A Fetcher pages through events.list with a Lister, drops placeholder
// entries whose trimmed title is in its ExclusionSet, and normalizes each
// remaining item into an EventRecord. Pages are requested one after another
// until the provider stops returning a next-page token; the first failed
// page aborts the whole fetch with ErrFetchFailure.
//
// Example usage:
//
//	lister, err := calendar.NewServiceLister(ctx, option.WithHTTPClient(httpClient))
//	if err != nil {
//	    return err
//	}
//	fetcher := calendar.NewFetcher(lister, calendarID)
//	records, err := fetcher.Fetch(ctx, dateRange)
package calendar
