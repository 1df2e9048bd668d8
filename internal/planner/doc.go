// Package planner decides, per file, whether audio can be copied or must
// be re-encoded to AAC and whether subtitle streams are carried over.
package planner
