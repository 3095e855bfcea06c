// Package fetcher downloads package descriptors over HTTP(S).
package fetcher
