// Package crawler implements the seed-driven article discovery engine: the
// URL frontier, link classification, request pacing and the breadth-first
// orchestrator that ties a Fetcher to them.
package crawler
