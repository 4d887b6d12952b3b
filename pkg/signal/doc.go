// Package signal loads the per-beat energy signal.
//
// A signal level is a CSV table with one row per beat:
//
//	Index,Energy_Value,Minima_Indices
//	0,0.8123,0
//	1,0.4410,1
//
// Index is the global 0-based beat index, Energy_Value the plotted value and
// Minima_Indices is 1 for beats flagged as a local minimum. Several levels of
// the same piece (different smoothing or analysis depth) are addressed by an
// integer level id and located through a path template such as
// "data/mazurka_level_{level}.csv" or an http(s) URL with the same
// placeholder.
//
// A [Store] loads levels on demand, keeps parsed tables in memory and caches
// the raw bytes in a [cache.Cache] so a restarted server does not refetch.
package signal
