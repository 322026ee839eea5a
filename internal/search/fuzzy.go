package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/egoavara/mapstore-plugins/internal/registry"
)

// SearchResult represents a search result
type SearchResult struct {
	Plugin registry.PluginEntry
	Score  int // Higher is better
}

// PluginSearchable wraps plugin entries for fuzzy searching
type PluginSearchable []registry.PluginEntry

// String returns the searchable string for a plugin: its name then its dependencies
func (p PluginSearchable) String(i int) string {
	parts := append([]string{p[i].Name()}, p[i].Dependencies()...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Len returns the number of plugins
func (p PluginSearchable) Len() int {
	return len(p)
}

// FuzzySearch ranks plugins whose name or dependencies fuzzily match query
func FuzzySearch(plugins []registry.PluginEntry, query string) []SearchResult {
	matches := fuzzy.FindFrom(strings.ToLower(query), PluginSearchable(plugins))

	results := make([]SearchResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, SearchResult{
			Plugin: plugins[match.Index],
			Score:  match.Score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// SimpleSearch performs a case-insensitive substring search
func SimpleSearch(plugins []registry.PluginEntry, query string) []SearchResult {
	var results []SearchResult
	query = strings.ToLower(query)

	for _, plugin := range plugins {
		if matchesQuery(plugin, query) {
			results = append(results, SearchResult{
				Plugin: plugin,
				Score:  100,
			})
		}
	}

	return results
}

func matchesQuery(plugin registry.PluginEntry, query string) bool {
	if strings.Contains(strings.ToLower(plugin.Name()), query) {
		return true
	}

	for _, dep := range plugin.Dependencies() {
		if strings.Contains(strings.ToLower(dep), query) {
			return true
		}
	}

	return false
}
