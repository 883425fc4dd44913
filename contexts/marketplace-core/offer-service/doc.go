// Package offerservice owns the offer negotiation state machine: root offers,
// seller counter-offers, accept/reject/withdraw transitions, and the timed
// expiry sweep. All transitions are conditional on the observed status so
// concurrent actors can never double-settle a negotiation thread.
package offerservice
