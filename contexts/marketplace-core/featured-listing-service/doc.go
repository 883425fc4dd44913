// Package featuredservice is the placement engine: it sells timed featured
// slots on marketplace listings and keeps the placement window honest.
package featuredservice
