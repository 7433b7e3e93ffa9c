// Package session defines the conversation thread model and its durable
// JSON-file store. Each session lives in one flat document whose filename is
// timestamp-prefixed, making lexicographic order the recency order. Decoding
// is deliberately defensive: missing fields take documented defaults, legacy
// bare-array files still load, and unparsable files degrade to placeholder
// entries so one corrupt session never blocks the rest.
package session
