// Package proto defines the closed vocabularies shared by every stage of a
// posting run: slots, moods, text sources, and the post record kept in state.
package proto
